// Package frontmatter extracts YAML front matter from Markdown documents.
//
// A marker line is a line that equals `---` after trimming surrounding
// whitespace. The front matter block is the run of lines strictly between
// the first and second marker lines. A document with fewer than two marker
// lines carries no front matter.
package frontmatter

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a front matter
// block but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

func isMarker(line string) bool {
	return strings.TrimSpace(line) == "---"
}

// Extract reads a document and returns its raw front matter block.
//
// Reading stops at the second marker line; the rest of the document is never
// consumed. Lines before the first marker line are skipped, so a stray
// preamble does not hide a block. found is false when the document contains
// fewer than two marker lines, including the unclosed single-marker case.
func Extract(r io.Reader) (block []byte, found bool, err error) {
	var buf bytes.Buffer
	markers := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if isMarker(line) {
			markers++
			if markers == 2 {
				return buf.Bytes(), true, nil
			}
			continue
		}
		if markers == 1 {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}

	return nil, false, nil
}

// ExtractBytes is a convenience wrapper around Extract for in-memory documents.
func ExtractBytes(content []byte) ([]byte, bool, error) {
	return Extract(bytes.NewReader(content))
}

// Split separates front matter from the body of a well formed document.
//
// Unlike Extract, Split requires the block to open on the very first line,
// the shape every generated page has. If the document does not open with a
// marker line, had is false and body is the full input. An opening marker
// without a closing one is an error.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	lineStart := 0
	openEnd := 0
	markers := 0

	for lineStart <= len(content) {
		lineEnd := bytes.IndexByte(content[lineStart:], '\n')
		var line []byte
		next := len(content) + 1
		if lineEnd >= 0 {
			line = content[lineStart : lineStart+lineEnd]
			next = lineStart + lineEnd + 1
		} else {
			line = content[lineStart:]
		}

		switch {
		case isMarker(string(line)):
			markers++
			if markers == 1 {
				openEnd = next
			} else {
				fm = content[openEnd:lineStart]
				body = []byte{}
				if next <= len(content) {
					body = content[next:]
				}
				return fm, body, true, nil
			}
		case markers == 0:
			// No opening marker on the first line.
			return nil, content, false, nil
		}

		if lineEnd < 0 {
			break
		}
		lineStart = next
	}

	if markers == 1 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return nil, content, false, nil
}

// ParseYAML parses a raw front matter block (without --- delimiters) into a map.
func ParseYAML(block []byte) (map[string]any, error) {
	if len(block) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(block, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
