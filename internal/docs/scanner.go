// Package docs walks a documentation tree and extracts the metadata every
// Markdown document carries in its front matter.
package docs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/tagindex/internal/docs/errors"
	"git.home.luguber.info/inful/tagindex/internal/docmodel"
	"git.home.luguber.info/inful/tagindex/internal/frontmatter"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
)

// Problem records a document that degraded during scanning. Problems are
// advisory; the scan itself continues and the document stays in the result
// with whatever metadata survived.
type Problem struct {
	Path   string // path relative to the docs dir
	Field  string // offending front matter field, empty for whole-document problems
	Reason string
}

// Scanner extracts document metadata from a docs directory tree.
type Scanner struct {
	docsDir string
	exclude map[string]struct{}
}

// NewScanner creates a scanner rooted at docsDir. excludeDirs are absolute
// directory paths skipped during the walk, typically the resolved tags
// folder so generated pages never feed back into a scan.
func NewScanner(docsDir string, excludeDirs ...string) *Scanner {
	exclude := make(map[string]struct{}, len(excludeDirs))
	for _, dir := range excludeDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			exclude[abs] = struct{}{}
		}
	}
	return &Scanner{docsDir: docsDir, exclude: exclude}
}

// Scan walks the docs tree in lexical order and returns one metadata entry
// per Markdown document, tagged or not. The returned slice is the complete
// scan result; the scanner keeps no state between calls.
func (s *Scanner) Scan() ([]docmodel.DocumentMetadata, []Problem, error) {
	if _, err := os.Stat(s.docsDir); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", derrors.ErrDocsPathNotFound, s.docsDir)
	}

	var docs []docmodel.DocumentMetadata
	var problems []Problem

	err := filepath.Walk(s.docsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if s.skipDir(path, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isMarkdownFile(path) || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		relPath, err := filepath.Rel(s.docsDir, path)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}
		name := filepath.ToSlash(relPath)

		meta, docProblems, err := s.extract(path, name)
		if err != nil {
			return err
		}

		docs = append(docs, meta)
		problems = append(problems, docProblems...)

		slog.Debug("Scanned document",
			logfields.File(name),
			slog.Int("tags", len(meta.Tags)),
			slog.Bool("front_matter", meta.HasTitle || meta.HasYear || meta.HasTags() || len(meta.Extra) > 0))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", derrors.ErrDocsDirWalkFailed, err)
	}

	slog.Info("Documents scanned", logfields.Dir(s.docsDir), logfields.Count(len(docs)))
	return docs, problems, nil
}

// extract reads one document's front matter and interprets it. YAML parse
// failures degrade the document to metadata-less instead of failing the scan.
func (s *Scanner) extract(path, name string) (docmodel.DocumentMetadata, []Problem, error) {
	// #nosec G304 -- path comes from walking the configured docs dir.
	f, err := os.Open(path)
	if err != nil {
		return docmodel.DocumentMetadata{}, nil, fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	block, found, err := frontmatter.Extract(f)
	if err != nil {
		return docmodel.DocumentMetadata{}, nil, fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, path, err)
	}
	if !found {
		return docmodel.DocumentMetadata{Filename: name}, nil, nil
	}

	fields, err := frontmatter.ParseYAML(block)
	if err != nil {
		slog.Warn("Front matter unparseable, treating document as untagged",
			logfields.File(name), logfields.Error(err))
		return docmodel.DocumentMetadata{Filename: name},
			[]Problem{{Path: name, Reason: fmt.Sprintf("front matter unparseable: %v", err)}},
			nil
	}

	meta, fieldIssues := docmodel.FromFields(fields, name)
	problems := make([]Problem, 0, len(fieldIssues))
	for _, issue := range fieldIssues {
		problems = append(problems, Problem{Path: name, Field: issue.Field, Reason: issue.Reason})
	}
	return meta, problems, nil
}

// skipDir filters hidden directories and the excluded output folders.
func (s *Scanner) skipDir(path, name string) bool {
	if name != "." && strings.HasPrefix(name, ".") && path != s.docsDir {
		return true
	}
	if abs, err := filepath.Abs(path); err == nil {
		if _, excluded := s.exclude[abs]; excluded {
			return true
		}
	}
	return false
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}
