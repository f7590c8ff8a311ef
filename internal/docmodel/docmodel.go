// Package docmodel defines the semantic metadata extracted from a scanned
// document. Well-known fields are typed; everything else rides along in an
// open extension bag so templates can reach any front matter key.
package docmodel

import (
	"fmt"
	"sort"
)

// Front matter keys with dedicated fields.
const (
	KeyTitle    = "title"
	KeyTags     = "tags"
	KeyYear     = "year"
	KeyFilename = "filename"
)

// DocumentMetadata is the interpreted front matter of one document.
//
// Absence is meaningful: a document without a year sorts after dated ones,
// a document without a title renders under a default. The Has flags keep
// absent distinct from zero values.
type DocumentMetadata struct {
	Title    string
	HasTitle bool
	Tags     []string
	Year     int
	HasYear  bool

	// Filename is the document path relative to the docs dir, forward
	// slashed, injected by the scanner rather than read from front matter.
	Filename string

	// Extra holds every front matter field without a dedicated slot above,
	// untouched, for template passthrough.
	Extra map[string]any
}

// FieldIssue describes a front matter field that could not be interpreted.
// Issues are advisory; the surrounding fields still apply.
type FieldIssue struct {
	Field  string
	Reason string
}

// FromFields interprets a parsed front matter map into DocumentMetadata.
//
// Interpretation is lenient: fields that cannot be coerced are dropped and
// reported as issues instead of failing the document.
func FromFields(fields map[string]any, filename string) (DocumentMetadata, []FieldIssue) {
	meta := DocumentMetadata{Filename: filename}
	var issues []FieldIssue

	for key, value := range fields {
		switch key {
		case KeyTitle:
			if s, ok := scalarString(value); ok {
				meta.Title = s
				meta.HasTitle = true
			} else if value != nil {
				issues = append(issues, FieldIssue{Field: KeyTitle, Reason: "not a scalar"})
			}
		case KeyTags:
			tags, issue := coerceTags(value)
			meta.Tags = tags
			if issue != "" {
				issues = append(issues, FieldIssue{Field: KeyTags, Reason: issue})
			}
		case KeyYear:
			if y, ok := coerceYear(value); ok {
				meta.Year = y
				meta.HasYear = true
			} else if value != nil {
				issues = append(issues, FieldIssue{Field: KeyYear, Reason: "not an integer"})
			}
		case KeyFilename:
			// The scanner owns this field; a front matter value is shadowed.
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]any)
			}
			meta.Extra[key] = value
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return meta, issues
}

// HasTags reports whether the document participates in tag aggregation.
func (m DocumentMetadata) HasTags() bool {
	return len(m.Tags) > 0
}

// scalarString stringifies YAML scalars. Mappings and sequences do not
// stringify; nil is absence, not a value.
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

// coerceTags accepts a scalar (one tag) or a sequence of scalars.
// nil means no tags. Anything else yields no tags plus a reason.
func coerceTags(v any) ([]string, string) {
	switch tv := v.(type) {
	case nil:
		return nil, ""
	case []any:
		var tags []string
		reason := ""
		for _, item := range tv {
			if s, ok := scalarString(item); ok {
				tags = append(tags, s)
			} else {
				reason = "non-scalar entry dropped"
			}
		}
		return tags, reason
	case []string:
		return append([]string(nil), tv...), ""
	default:
		if s, ok := scalarString(v); ok {
			return []string{s}, ""
		}
		return nil, "not a scalar or sequence"
	}
}

// coerceYear accepts integral YAML values only.
func coerceYear(v any) (int, bool) {
	switch y := v.(type) {
	case int:
		return y, true
	case int64:
		return int(y), true
	case uint64:
		return int(y), true
	case float64:
		if y == float64(int(y)) {
			return int(y), true
		}
	}
	return 0, false
}
