package config

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
)

const starterConfig = `# tagindex configuration

site:
  docs_dir: docs
  site_dir: site
  use_directory_urls: true

# Filename of the global tag index page.
tags_filename: tags.md

# Output folder for generated pages. A relative path resolves against the
# parent of docs_dir.
tags_folder: aux

# Optional template override for the index page only.
# tags_template: templates/tags.md.tmpl

# Escalate per-document metadata problems to fatal errors.
strict: false

logging:
  level: info
  format: text

# metrics:
#   enabled: true
#   listen: ":9313"

# events:
#   enabled: true
#   url: nats://127.0.0.1:4222
#   subject_prefix: tagindex

# state:
#   enabled: true
#   path: tagindex.db

watch:
  debounce_ms: 300
  # rescan_interval: 10m

# source:
#   git:
#     url: https://example.com/docs.git
#     branch: main
#     path: .tagindex/source
#     token_env: TAGINDEX_GIT_TOKEN
#     retries: 2
`

// Init writes a commented starter configuration. An existing file is only
// overwritten with force.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal,
			"configuration file already exists, use --force to overwrite").
			WithContext("path", path)
	}

	// #nosec G306 -- starter config is not sensitive.
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "starter config not writable").
			WithContext("path", path)
	}

	slog.Info("Wrote starter configuration", logfields.Path(path))
	return nil
}
