// Package tags aggregates scanned document metadata into an ordered tag
// index: one group per tag, every group carrying its documents in display
// order.
package tags

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/tagindex/internal/docmodel"
)

// yearUnknown sorts undated documents after every dated one.
const yearUnknown = 5000

// Group is one tag and its documents in display order.
//
// Tag is the NFC form of the tag name; visually identical spellings in other
// Unicode normal forms fold into the same group.
type Group struct {
	Tag  string
	Docs []docmodel.DocumentMetadata
}

// Index holds every tag group in display order.
type Index struct {
	Groups []Group
}

// Aggregate builds the tag index from scanned metadata.
//
// Documents are ordered by year ascending with undated documents last, ties
// keeping scan order, and that one total order is what every group shows.
// Groups are ordered case-insensitively by tag name. The input slice is not
// modified.
func Aggregate(docs []docmodel.DocumentMetadata) *Index {
	ordered := make([]docmodel.DocumentMetadata, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sortYear(ordered[i]) < sortYear(ordered[j])
	})

	groups := make(map[string]*Group)
	var keys []string
	for _, doc := range ordered {
		for _, tag := range doc.Tags {
			key := norm.NFC.String(tag)
			g, ok := groups[key]
			if !ok {
				g = &Group{Tag: key}
				groups[key] = g
				keys = append(keys, key)
			}
			g.Docs = append(g.Docs, doc)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		li, lj := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if li != lj {
			return li < lj
		}
		return keys[i] < keys[j]
	})

	idx := &Index{Groups: make([]Group, 0, len(keys))}
	for _, key := range keys {
		idx.Groups = append(idx.Groups, *groups[key])
	}
	return idx
}

func sortYear(doc docmodel.DocumentMetadata) int {
	if doc.HasYear {
		return doc.Year
	}
	return yearUnknown
}

// Empty reports whether the index has no tag groups.
func (idx *Index) Empty() bool {
	return len(idx.Groups) == 0
}

// Tags returns the group names in display order.
func (idx *Index) Tags() []string {
	names := make([]string, len(idx.Groups))
	for i, g := range idx.Groups {
		names[i] = g.Tag
	}
	return names
}
