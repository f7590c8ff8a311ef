package site

import (
	"log/slog"

	"git.home.luguber.info/inful/tagindex/internal/docs"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/render"
	"git.home.luguber.info/inful/tagindex/internal/tags"
)

// Plugin binds one set of options to the host's build lifecycle. The value
// holds no per-pass state, so a single Plugin serves any number of passes.
type Plugin struct {
	opts Options
}

// NewPlugin creates a plugin for the given options.
func NewPlugin(opts Options) *Plugin {
	return &Plugin{opts: opts}
}

// OnConfig is the host's configuration hook: it resolves the options and
// prepares the tags folder.
func (p *Plugin) OnConfig(cfg Config) (Resolved, error) {
	return Resolve(cfg, p.opts)
}

// OnFiles is the host's file collection hook and runs the whole pass: scan
// the docs tree, aggregate tags, render every page, and register the
// generated pages. It returns the augmented file collection.
func (p *Plugin) OnFiles(files *Files, cfg Config) (*Files, error) {
	if files == nil {
		files = NewFiles()
	}

	res, err := Resolve(cfg, p.opts)
	if err != nil {
		return nil, err
	}

	scanner := docs.NewScanner(cfg.DocsDir, res.TagsDir)
	metas, _, err := scanner.Scan()
	if err != nil {
		return nil, err
	}

	idx := tags.Aggregate(metas)

	renderer := render.NewRenderer(render.Options{
		TagsDir:           res.TagsDir,
		IndexFilename:     res.IndexFilename,
		IndexTemplatePath: res.IndexTemplatePath,
	})
	pages, err := renderer.RenderAll(idx)
	if err != nil {
		return nil, err
	}

	RegisterPages(files, cfg, res, pages)
	return files, nil
}

// OnNav is the host's navigation hook. Generated pages do not alter the
// navigation tree, so the input passes through unchanged.
func (p *Plugin) OnNav(nav any, _ Config, _ *Files) any {
	return nav
}

// RegisterPages appends every generated page to the host file collection.
// Pages register file-style regardless of the host-wide URL setting so the
// links inside them resolve as written.
func RegisterPages(files *Files, cfg Config, res Resolved, pages []render.Page) int {
	for _, page := range pages {
		files.Append(File{
			Path:             page.Filename,
			SrcDir:           res.TagsDir,
			DestDir:          cfg.SiteDir,
			UseDirectoryURLs: false,
			Generated:        true,
		})
	}
	slog.Debug("Registered generated pages", logfields.Count(len(pages)))
	return len(pages)
}
