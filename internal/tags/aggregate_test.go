package tags

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tagindex/internal/docmodel"
)

func doc(filename string, year int, tagNames ...string) docmodel.DocumentMetadata {
	m := docmodel.DocumentMetadata{Filename: filename, Tags: tagNames}
	if year != 0 {
		m.Year = year
		m.HasYear = true
	}
	return m
}

func groupDocs(idx *Index, tag string) []string {
	for _, g := range idx.Groups {
		if g.Tag == tag {
			names := make([]string, len(g.Docs))
			for i, d := range g.Docs {
				names[i] = d.Filename
			}
			return names
		}
	}
	return nil
}

func TestAggregate_GroupOrder_CaseInsensitive(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("a.md", 2020, "zsh"),
		doc("b.md", 2020, "Ansible"),
		doc("c.md", 2020, "bash"),
	})

	require.Equal(t, []string{"Ansible", "bash", "zsh"}, idx.Tags())
}

func TestAggregate_CaseCollidingTags_StayDistinctAndOrdered(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("a.md", 2020, "tag"),
		doc("b.md", 2020, "Tag"),
	})

	// Equal when lowercased, so the raw spelling breaks the tie.
	require.Equal(t, []string{"Tag", "tag"}, idx.Tags())
}

func TestAggregate_YearOrder_UndatedLast(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("undated.md", 0, "go"),
		doc("new.md", 2023, "go"),
		doc("old.md", 1999, "go"),
	})

	require.Equal(t, []string{"old.md", "new.md", "undated.md"}, groupDocs(idx, "go"))
}

func TestAggregate_EqualYears_KeepScanOrder(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("first.md", 2021, "go"),
		doc("second.md", 2021, "go"),
		doc("third.md", 2021, "go"),
	})

	require.Equal(t, []string{"first.md", "second.md", "third.md"}, groupDocs(idx, "go"))
}

func TestAggregate_SameOrderInEveryGroup(t *testing.T) {
	docs := []docmodel.DocumentMetadata{
		doc("x.md", 2022, "go", "linux"),
		doc("y.md", 2019, "linux", "go"),
		doc("z.md", 0, "go", "linux"),
	}

	idx := Aggregate(docs)

	want := []string{"y.md", "x.md", "z.md"}
	if diff := cmp.Diff(want, groupDocs(idx, "go")); diff != "" {
		t.Errorf("go group order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, groupDocs(idx, "linux")); diff != "" {
		t.Errorf("linux group order mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_MultiTagDoc_AppearsInEachGroup(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("multi.md", 2021, "a", "b", "c"),
	})

	require.Len(t, idx.Groups, 3)
	for _, g := range idx.Groups {
		require.Equal(t, []string{"multi.md"}, groupDocs(idx, g.Tag))
	}
}

func TestAggregate_UntaggedDocs_DoNotAppear(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("untagged.md", 2021),
		doc("tagged.md", 2021, "go"),
	})

	require.Equal(t, []string{"go"}, idx.Tags())
	require.Equal(t, []string{"tagged.md"}, groupDocs(idx, "go"))
}

func TestAggregate_EmptyInput_EmptyIndex(t *testing.T) {
	idx := Aggregate(nil)
	require.True(t, idx.Empty())
	require.Empty(t, idx.Tags())
}

func TestAggregate_InputSlice_NotMutated(t *testing.T) {
	docs := []docmodel.DocumentMetadata{
		doc("b.md", 2023, "go"),
		doc("a.md", 1999, "go"),
	}

	_ = Aggregate(docs)

	require.Equal(t, "b.md", docs[0].Filename)
	require.Equal(t, "a.md", docs[1].Filename)
}

func TestAggregate_NFDSpelling_FoldsIntoNFCGroup(t *testing.T) {
	// "café" composed vs decomposed.
	nfc := "café"
	nfd := "café"

	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("one.md", 2020, nfc),
		doc("two.md", 2021, nfd),
	})

	require.Equal(t, []string{nfc}, idx.Tags())
	require.Equal(t, []string{"one.md", "two.md"}, groupDocs(idx, nfc))
}

func TestAggregate_RepeatedTagInOneDoc_RepeatsEntry(t *testing.T) {
	idx := Aggregate([]docmodel.DocumentMetadata{
		doc("dup.md", 2021, "go", "go"),
	})

	// Each occurrence lands in the group; Aggregate does not de-duplicate.
	require.Equal(t, []string{"dup.md", "dup.md"}, groupDocs(idx, "go"))
}
