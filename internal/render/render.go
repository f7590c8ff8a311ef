// Package render generates the per-tag pages and the global index page from
// an aggregated tag index. Default templates are embedded in the binary; the
// index template alone can be overridden from configuration.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/inful/mdfp"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/tagindex/internal/docmodel"
	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/frontmatter"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/tags"
)

const untitledDocTitle = "Untitled"

// Page kinds.
const (
	KindTagPage   = "tag"
	KindIndexPage = "index"
)

//go:embed templates_defaults/*.tmpl
var embeddedTemplates embed.FS

var embeddedTemplateNames = map[string]string{
	KindTagPage:   "tag.md.tmpl",
	KindIndexPage: "tags.md.tmpl",
}

// TemplateInfo records which template source produced a page kind.
type TemplateInfo struct {
	Source string `json:"source"` // "embedded" or "file"
	Path   string `json:"path,omitempty"`
}

// Page describes one generated page.
type Page struct {
	Kind        string
	Tag         string // empty for the index page
	Filename    string // basename within the tags folder
	Path        string // full path on disk
	Fingerprint string
	Unchanged   bool // on-disk content already matched, write skipped
}

// IndexEntry is one row of the global index template context.
type IndexEntry struct {
	Tag      string
	Filename string
	Count    int
}

// Options configures a Renderer.
type Options struct {
	// TagsDir is the resolved output folder; it must exist.
	TagsDir string
	// IndexFilename is the basename of the global index page.
	IndexFilename string
	// IndexTemplatePath optionally overrides the index template. Tag pages
	// always render from the embedded default.
	IndexTemplatePath string
}

// Renderer writes tag pages and the index page for one pass.
type Renderer struct {
	opts  Options
	usage map[string]TemplateInfo
}

// NewRenderer creates a renderer for the given options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts, usage: make(map[string]TemplateInfo)}
}

// TemplateUsage reports which template source served each page kind during
// the last RenderAll.
func (r *Renderer) TemplateUsage() map[string]TemplateInfo {
	out := make(map[string]TemplateInfo, len(r.usage))
	for k, v := range r.usage {
		out[k] = v
	}
	return out
}

// TagPageFilename derives the per-tag page filename from the tag name.
// Path separators are flattened so every page stays inside the tags folder.
func TagPageFilename(tag string) string {
	safe := strings.NewReplacer("/", "-", "\\", "-").Replace(tag)
	return fmt.Sprintf("tag.%s.md", safe)
}

// RenderAll writes one page per tag group plus the global index page and
// describes every page it produced. Output is deterministic: the same index
// yields byte-identical pages, and pages already on disk with matching
// content are left untouched.
func (r *Renderer) RenderAll(idx *tags.Index) ([]Page, error) {
	pages := make([]Page, 0, len(idx.Groups)+1)

	for _, g := range idx.Groups {
		page, err := r.renderTagPage(g)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	indexPage, err := r.renderIndexPage(idx)
	if err != nil {
		return nil, err
	}
	pages = append(pages, indexPage)

	slog.Info("Pages rendered", logfields.Dir(r.opts.TagsDir), logfields.Count(len(pages)))
	return pages, nil
}

func (r *Renderer) renderTagPage(g tags.Group) (Page, error) {
	tplRaw, err := r.pageTemplate(KindTagPage)
	if err != nil {
		return Page{}, err
	}

	tpl, err := template.New("tag_page").Funcs(templateFuncs()).Parse(tplRaw)
	if err != nil {
		return Page{}, errors.TemplateError(KindTagPage, err)
	}

	ctx := map[string]any{
		"Tag":   g.Tag,
		"Count": len(g.Docs),
		"Docs":  entryContexts(g.Docs),
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, ctx); err != nil {
		return Page{}, errors.TemplateError(KindTagPage, err).WithContext("tag", g.Tag)
	}

	return r.writePage(Page{Kind: KindTagPage, Tag: g.Tag, Filename: TagPageFilename(g.Tag)}, buf.Bytes())
}

func (r *Renderer) renderIndexPage(idx *tags.Index) (Page, error) {
	tplRaw, err := r.pageTemplate(KindIndexPage)
	if err != nil {
		return Page{}, err
	}

	tpl, err := template.New("index_page").Funcs(templateFuncs()).Parse(tplRaw)
	if err != nil {
		return Page{}, errors.TemplateError(KindIndexPage, err)
	}

	entries := make([]IndexEntry, 0, len(idx.Groups))
	for _, g := range idx.Groups {
		entries = append(entries, IndexEntry{
			Tag:      g.Tag,
			Filename: TagPageFilename(g.Tag),
			Count:    len(g.Docs),
		})
	}

	ctx := map[string]any{
		"Data":  entries,
		"Count": len(entries),
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, ctx); err != nil {
		return Page{}, errors.TemplateError(KindIndexPage, err)
	}

	return r.writePage(Page{Kind: KindIndexPage, Filename: r.opts.IndexFilename}, buf.Bytes())
}

// pageTemplate returns the template body for a page kind: the configured
// override for the index when set, the embedded default otherwise.
// A configured override that cannot be read is an error, never a silent
// fallback. Panics only if an embedded default is missing (programmer error).
func (r *Renderer) pageTemplate(kind string) (string, error) {
	if kind == KindIndexPage && r.opts.IndexTemplatePath != "" {
		// #nosec G304 -- path comes from validated configuration.
		b, err := os.ReadFile(r.opts.IndexTemplatePath)
		if err != nil {
			return "", errors.Wrap(err, errors.CategoryTemplate, errors.SeverityFatal, "index template override unreadable").
				WithContext("path", r.opts.IndexTemplatePath)
		}
		slog.Debug("Loaded index template override", logfields.Path(r.opts.IndexTemplatePath))
		r.usage[kind] = TemplateInfo{Source: "file", Path: r.opts.IndexTemplatePath}
		return string(b), nil
	}

	name, ok := embeddedTemplateNames[kind]
	if !ok {
		panic(fmt.Sprintf("unknown page template kind %s", kind))
	}
	b, err := embeddedTemplates.ReadFile("templates_defaults/" + name)
	if err != nil {
		panic(fmt.Sprintf("embedded default template missing for kind %s: %v", kind, err))
	}
	if _, exists := r.usage[kind]; !exists {
		r.usage[kind] = TemplateInfo{Source: "embedded"}
	}
	return string(b), nil
}

// entryContexts exposes documents to templates the way front matter spells
// them: lowercase well-known keys plus every extra field. The title default
// applies here, at render time.
func entryContexts(docs []docmodel.DocumentMetadata) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		ctx := make(map[string]any, len(doc.Extra)+3)
		for k, v := range doc.Extra {
			ctx[k] = v
		}
		ctx[docmodel.KeyFilename] = doc.Filename
		ctx[docmodel.KeyTitle] = untitledDocTitle
		if doc.HasTitle {
			ctx[docmodel.KeyTitle] = doc.Title
		}
		if doc.HasYear {
			ctx[docmodel.KeyYear] = doc.Year
		}
		out = append(out, ctx)
	}
	return out
}

// writePage persists rendered content unless the on-disk page already
// matches byte for byte. Writes go through a temp file and rename so a
// crashed pass never leaves a truncated page.
func (r *Renderer) writePage(page Page, content []byte) (Page, error) {
	page.Path = filepath.Join(r.opts.TagsDir, page.Filename)
	page.Fingerprint = fingerprintContent(content)

	if existing, err := os.ReadFile(page.Path); err == nil && bytes.Equal(existing, content) {
		page.Unchanged = true
		slog.Debug("Page unchanged, skipping write", logfields.File(page.Filename))
		return page, nil
	}

	if err := atomic.WriteFile(page.Path, bytes.NewReader(content)); err != nil {
		return Page{}, errors.WriteError(page.Path, err)
	}

	slog.Debug("Page written", logfields.File(page.Filename), logfields.Tag(page.Tag))
	return page, nil
}

// fingerprintContent derives the fingerprint recorded for a page. Front
// matter and body hash as separate parts so the value matches what
// fingerprint-aware tooling computes for the same page.
func fingerprintContent(content []byte) string {
	fm, body, _, err := frontmatter.Split(content)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	fmPart := strings.TrimSuffix(string(fm), "\n")
	return mdfp.CalculateFingerprintFromParts(fmPart, string(body))
}
