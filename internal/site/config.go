package site

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
)

// Option defaults.
const (
	DefaultIndexFilename = "tags.md"
	DefaultFolder        = "aux"
)

// Config carries the host-level build settings a pass needs.
type Config struct {
	// DocsDir is the documentation source directory.
	DocsDir string

	// SiteDir is the host's site output directory, used as the destination
	// of registered files.
	SiteDir string

	// UseDirectoryURLs is the host-wide URL style. Generated pages ignore
	// it and always register file-style.
	UseDirectoryURLs bool

	// Extra holds host settings this tool passes through untouched.
	Extra map[string]any
}

// Options are the plugin options the host hands over at configuration time.
type Options struct {
	// Filename of the global index page. Empty selects the default.
	Filename string

	// Folder receiving all generated pages. A relative path resolves
	// against the parent of DocsDir. Empty selects the default.
	Folder string

	// Template optionally overrides the index template. It must name an
	// existing file; tag pages always use the built-in template.
	Template string
}

// DefaultOptions returns the options an empty configuration resolves to.
func DefaultOptions() Options {
	return Options{Filename: DefaultIndexFilename, Folder: DefaultFolder}
}

// Resolved holds the effective output locations for one pass.
type Resolved struct {
	// TagsDir is the absolute folder generated pages are written into.
	TagsDir string

	// IndexFilename is the basename of the global index page.
	IndexFilename string

	// IndexTemplatePath is the index template override, empty for the
	// built-in default.
	IndexTemplatePath string
}

// Resolve applies option defaults, locates the tags folder relative to the
// parent of the docs dir, and creates it. Creation is idempotent; an
// existing folder is reused as is. A configured template override that does
// not exist fails here, before any scanning starts.
func Resolve(cfg Config, opts Options) (Resolved, error) {
	filename := opts.Filename
	if filename == "" {
		filename = DefaultIndexFilename
	}

	folder := opts.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	if !filepath.IsAbs(folder) {
		docsAbs, err := filepath.Abs(cfg.DocsDir)
		if err != nil {
			return Resolved{}, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "docs dir not resolvable").
				WithContext("dir", cfg.DocsDir)
		}
		folder = filepath.Join(filepath.Dir(docsAbs), folder)
	}

	if err := os.MkdirAll(folder, 0o750); err != nil {
		return Resolved{}, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "tags folder not creatable").
			WithContext("dir", folder)
	}

	if opts.Template != "" {
		if _, err := os.Stat(opts.Template); err != nil {
			return Resolved{}, errors.TemplateNotFound(opts.Template)
		}
	}

	slog.Debug("Resolved output options",
		logfields.Dir(folder),
		logfields.File(filename))

	return Resolved{
		TagsDir:           folder,
		IndexFilename:     filename,
		IndexTemplatePath: opts.Template,
	}, nil
}
