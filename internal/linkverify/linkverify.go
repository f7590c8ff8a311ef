// Package linkverify checks generated pages for link integrity: every link
// on the index page must resolve to a generated tag page, and every tag page
// must be linked from the index.
package linkverify

import (
	"bytes"
	"net/url"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/frontmatter"
	"git.home.luguber.info/inful/tagindex/internal/render"
)

// Finding codes.
const (
	CodeDanglingLink = "DANGLING_LINK"
	CodeOrphanPage   = "ORPHAN_PAGE"
)

// Finding is one integrity violation.
type Finding struct {
	// Code is CodeDanglingLink or CodeOrphanPage.
	Code string

	// Page names the page the finding concerns.
	Page string

	// Target is the unresolved link destination for dangling links, or the
	// unreferenced page filename for orphans.
	Target string
}

// Result summarizes one verification run.
type Result struct {
	LinksChecked int
	Findings     []Finding
}

// Clean reports whether verification found no violations.
func (r *Result) Clean() bool {
	return len(r.Findings) == 0
}

// VerifyIndex cross-checks the rendered index page against the generated
// tag pages. Only relative links without a scheme are checked; anchors and
// external URLs pass through unverified.
func VerifyIndex(indexPath string, pages []render.Page) (*Result, error) {
	// #nosec G304 -- path derives from the resolved tags folder.
	content, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "index page unreadable").
			WithContext("path", indexPath)
	}

	_, body, _, err := frontmatter.Split(content)
	if err != nil {
		body = content
	}

	var indexName string
	generated := make(map[string]bool)
	referenced := make(map[string]bool)
	for _, p := range pages {
		if p.Kind == render.KindTagPage {
			generated[p.Filename] = false
		} else {
			indexName = p.Filename
		}
	}

	res := &Result{}
	for _, dest := range collectDestinations(body) {
		target, ok := verifiableTarget(dest)
		if !ok {
			continue
		}
		res.LinksChecked++
		if _, exists := generated[target]; exists {
			referenced[target] = true
			continue
		}
		res.Findings = append(res.Findings, Finding{Code: CodeDanglingLink, Page: indexName, Target: target})
	}

	for _, p := range pages {
		if p.Kind != render.KindTagPage {
			continue
		}
		if !referenced[p.Filename] {
			res.Findings = append(res.Findings, Finding{Code: CodeOrphanPage, Page: p.Filename, Target: p.Filename})
		}
	}

	return res, nil
}

// collectDestinations walks the markdown AST for link destinations and runs
// raw HTML segments through a tokenizer for anchor hrefs.
func collectDestinations(body []byte) []string {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(body))

	var dests []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			dests = append(dests, string(node.Destination))
		case *gmast.AutoLink:
			dests = append(dests, string(node.URL(body)))
		case *gmast.Image:
			dests = append(dests, string(node.Destination))
		case *gmast.RawHTML:
			dests = append(dests, rawHTMLHrefs(segmentBytes(node.Segments, body))...)
		case *gmast.HTMLBlock:
			dests = append(dests, rawHTMLHrefs(linesBytes(node.Lines(), body))...)
		}
		return gmast.WalkContinue, nil
	})
	return dests
}

func segmentBytes(segments *gmtext.Segments, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

func linesBytes(lines *gmtext.Segments, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

// rawHTMLHrefs extracts anchor hrefs from an HTML fragment.
func rawHTMLHrefs(fragment []byte) []string {
	var out []string
	tok := html.NewTokenizer(bytes.NewReader(fragment))
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tok.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := tok.TagAttr()
			if string(key) == "href" && len(val) > 0 {
				out = append(out, string(val))
			}
			if !more {
				break
			}
		}
	}
}

// verifiableTarget normalizes a destination to a page filename, reporting
// whether it is a relative page link worth checking.
func verifiableTarget(dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	path := u.Path
	if path == "" || strings.HasPrefix(path, "/") {
		return "", false
	}
	path = strings.TrimPrefix(path, "./")
	return path, true
}
