package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tierrors "git.home.luguber.info/inful/tagindex/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tagindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "docs", cfg.Site.DocsDir)
	require.Equal(t, "tags.md", cfg.TagsFilename)
	require.Equal(t, "aux", cfg.TagsFolder)
	require.True(t, cfg.Site.UseDirectoryURLs)
	require.False(t, cfg.Strict)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  docs_dir: content
tags_filename: index.md
tags_folder: generated
strict: true
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "content", cfg.Site.DocsDir)
	require.Equal(t, "site", cfg.Site.SiteDir)
	require.Equal(t, "index.md", cfg.TagsFilename)
	require.Equal(t, "generated", cfg.TagsFolder)
	require.True(t, cfg.Strict)
	require.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TI_TEST_DOCS", "docs-from-env")
	path := writeConfig(t, "site:\n  docs_dir: ${TI_TEST_DOCS}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "docs-from-env", cfg.Site.DocsDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.True(t, tierrors.IsCategory(err, tierrors.CategoryConfig))
}

func TestLoadBrokenYAML(t *testing.T) {
	path := writeConfig(t, "site: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, tierrors.IsCategory(err, tierrors.CategoryConfig))
}

func TestLoadValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"filename with separator", "tags_filename: sub/tags.md\n"},
		{"filename without markdown extension", "tags_filename: tags.txt\n"},
		{"unknown log level", "logging:\n  level: loud\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
		{"negative debounce", "watch:\n  debounce_ms: -10\n"},
		{"broken rescan interval", "watch:\n  rescan_interval: often\n"},
		{"git source without url", "source:\n  git:\n    branch: main\n"},
		{"events enabled without url", "events:\n  enabled: true\n  url: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			require.True(t, tierrors.IsCategory(err, tierrors.CategoryValidation))
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	path := writeConfig(t, "tags_folder: meta\n")
	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	require.Equal(t, "meta", cfg.TagsFolder)
}

func TestUppercaseFilenameAccepted(t *testing.T) {
	cfg, err := Load(writeConfig(t, "tags_filename: TAGS.MD\n"))
	require.NoError(t, err)
	require.Equal(t, "TAGS.MD", cfg.TagsFilename)
}

func TestWatchRescanEvery(t *testing.T) {
	var w WatchConfig
	_, ok := w.RescanEvery()
	require.False(t, ok)

	w.RescanInterval = "10m"
	d, ok := w.RescanEvery()
	require.True(t, ok)
	require.Equal(t, 10*time.Minute, d)

	require.Equal(t, 300*time.Millisecond, WatchConfig{DebounceMS: 300}.Debounce())
}

func TestGitSourceNormalization(t *testing.T) {
	git := &GitSourceConfig{URL: "https://example.com/docs.git"}
	require.NoError(t, git.Validate())
	require.Equal(t, "main", git.Branch)
	require.Equal(t, filepath.Join(".tagindex", "source"), git.Path)
}

func TestNormalizeLogLevel(t *testing.T) {
	require.Equal(t, LogLevelDebug, NormalizeLogLevel("DEBUG"))
	require.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel(""))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("nonsense"))
	require.Equal(t, slog.LevelError, LogLevelError.Slog())
}

func TestNormalizeLogFormat(t *testing.T) {
	require.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
	require.Equal(t, LogFormatText, NormalizeLogFormat("yaml"))
}

func TestInitWritesLoadableStarter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagindex.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "docs", cfg.Site.DocsDir)
	require.Equal(t, "aux", cfg.TagsFolder)
	require.False(t, cfg.Metrics.Enabled)
	require.False(t, cfg.Events.Enabled)
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site: {}\n"), 0o644))

	err := Init(path, false)
	require.Error(t, err)
	require.True(t, tierrors.IsCategory(err, tierrors.CategoryConfig))

	require.NoError(t, Init(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "tags_filename: tags.md")
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.TagsTemplate = "custom.tmpl"

	settings := cfg.SiteSettings()
	require.Equal(t, "docs", settings.DocsDir)
	require.Equal(t, "site", settings.SiteDir)
	require.True(t, settings.UseDirectoryURLs)

	opts := cfg.TagOptions()
	require.Equal(t, "tags.md", opts.Filename)
	require.Equal(t, "aux", opts.Folder)
	require.Equal(t, "custom.tmpl", opts.Template)
}
