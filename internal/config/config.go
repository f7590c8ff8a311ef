// Package config loads and validates the tagindex configuration: a YAML
// file with environment variable expansion, layered over built-in defaults.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/site"
)

// Config is the complete application configuration.
type Config struct {
	Site SiteConfig `yaml:"site"`

	// Plugin options, spelled exactly as the host configuration spells them.
	TagsFilename string `yaml:"tags_filename"`
	TagsFolder   string `yaml:"tags_folder"`
	TagsTemplate string `yaml:"tags_template"`

	// Strict escalates per-document metadata problems to fatal errors.
	Strict bool `yaml:"strict"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
	State   StateConfig   `yaml:"state"`
	Watch   WatchConfig   `yaml:"watch"`
	Source  SourceConfig  `yaml:"source"`
	Report  ReportConfig  `yaml:"report"`
}

// SiteConfig carries the host site settings.
type SiteConfig struct {
	DocsDir          string `yaml:"docs_dir"`
	SiteDir          string `yaml:"site_dir"`
	UseDirectoryURLs bool   `yaml:"use_directory_urls"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// EventsConfig controls NATS event publishing.
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// StateConfig controls the pass history database.
type StateConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig tunes the watch mode rebuild loop.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`

	// RescanInterval optionally schedules periodic full rebuilds, as a
	// Go duration string. Empty disables periodic rescans.
	RescanInterval string `yaml:"rescan_interval"`
}

// Debounce returns the rebuild debounce window.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RescanEvery returns the periodic rescan interval and whether one is
// configured.
func (c WatchConfig) RescanEvery() (time.Duration, bool) {
	if c.RescanInterval == "" {
		return 0, false
	}
	d, err := time.ParseDuration(c.RescanInterval)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// SourceConfig selects where the docs tree comes from. Without a git block
// the configured docs dir is scanned in place.
type SourceConfig struct {
	Git *GitSourceConfig `yaml:"git"`
}

// GitSourceConfig clones or updates a docs repository before scanning.
type GitSourceConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`

	// Path is the local checkout directory.
	Path string `yaml:"path"`

	// TokenEnv names an environment variable holding an access token for
	// private repositories.
	TokenEnv string `yaml:"token_env"`

	// Retries is how often a transient pull failure is retried with linear
	// backoff before the pass falls back to the stale checkout.
	Retries int `yaml:"retries"`
}

// ReportConfig controls where build reports are written. An empty dir puts
// them beside the tags folder.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration an empty file resolves to.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			DocsDir:          "docs",
			SiteDir:          "site",
			UseDirectoryURLs: true,
		},
		TagsFilename: site.DefaultIndexFilename,
		TagsFolder:   site.DefaultFolder,
		Logging:      LoggingConfig{Level: "info", Format: "text"},
		Metrics:      MetricsConfig{Listen: ":9313"},
		Events: EventsConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "tagindex",
		},
		State: StateConfig{Path: "tagindex.db"},
		Watch: WatchConfig{DebounceMS: 300},
	}
}

// Load reads the configuration file, expands ${VAR} references from the
// environment, unmarshals it over the defaults, and validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(path)
	}

	// #nosec G304 -- path comes from the CLI flag.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "config file unreadable").
			WithContext("path", path)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "config file not parseable").
			WithContext("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, errors.SeverityFatal, "invalid configuration").
			WithContext("path", path)
	}

	return cfg, nil
}

// LoadOrDefault loads the file when it exists and falls back to validated
// defaults when it does not. A present but broken file is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// SiteSettings converts to the host settings the pass runs under.
func (c *Config) SiteSettings() site.Config {
	return site.Config{
		DocsDir:          c.Site.DocsDir,
		SiteDir:          c.Site.SiteDir,
		UseDirectoryURLs: c.Site.UseDirectoryURLs,
	}
}

// TagOptions converts to the plugin options block.
func (c *Config) TagOptions() site.Options {
	return site.Options{
		Filename: c.TagsFilename,
		Folder:   c.TagsFolder,
		Template: c.TagsTemplate,
	}
}
