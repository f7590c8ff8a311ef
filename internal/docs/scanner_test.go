package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o750))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestScan_MixedTree_ReturnsOneEntryPerMarkdownDoc(t *testing.T) {
	docsDir := t.TempDir()
	writeTree(t, docsDir, map[string]string{
		"index.md":          "---\ntitle: Home\ntags:\n  - intro\n---\n# Home\n",
		"guides/install.md": "---\ntitle: Install\ntags: [setup, intro]\nyear: 2020\n---\nBody\n",
		"guides/notes.md":   "# Plain notes\n\nNo front matter here.\n",
		"assets/logo.txt":   "not markdown",
	})

	docs, problems, err := NewScanner(docsDir).Scan()
	require.NoError(t, err)
	require.Empty(t, problems)
	require.Len(t, docs, 3)

	byName := map[string]int{}
	for i, d := range docs {
		byName[d.Filename] = i
	}
	require.Contains(t, byName, "index.md")
	require.Contains(t, byName, "guides/install.md")
	require.Contains(t, byName, "guides/notes.md")

	install := docs[byName["guides/install.md"]]
	require.Equal(t, []string{"setup", "intro"}, install.Tags)
	require.True(t, install.HasYear)
	require.Equal(t, 2020, install.Year)

	notes := docs[byName["guides/notes.md"]]
	require.False(t, notes.HasTags())
	require.False(t, notes.HasTitle)
}

func TestScan_LexicalWalkOrder_IsDeterministic(t *testing.T) {
	docsDir := t.TempDir()
	writeTree(t, docsDir, map[string]string{
		"b.md":     "---\ntags: [x]\n---\n",
		"a.md":     "---\ntags: [x]\n---\n",
		"sub/c.md": "---\ntags: [x]\n---\n",
	})

	docs, _, err := NewScanner(docsDir).Scan()
	require.NoError(t, err)

	var names []string
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	require.Equal(t, []string{"a.md", "b.md", "sub/c.md"}, names)
}

func TestScan_UnparseableFrontMatter_DegradesToUntagged(t *testing.T) {
	docsDir := t.TempDir()
	writeTree(t, docsDir, map[string]string{
		"bad.md":  "---\ntitle: [unclosed\n---\nBody\n",
		"good.md": "---\ntags: [ok]\n---\n",
	})

	docs, problems, err := NewScanner(docsDir).Scan()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Len(t, problems, 1)
	require.Equal(t, "bad.md", problems[0].Path)
	require.Empty(t, problems[0].Field)

	for _, d := range docs {
		if d.Filename == "bad.md" {
			require.False(t, d.HasTags())
		}
	}
}

func TestScan_FieldProblems_ReportedPerDocument(t *testing.T) {
	docsDir := t.TempDir()
	writeTree(t, docsDir, map[string]string{
		"odd.md": "---\ntags: [go]\nyear: soon\n---\n",
	})

	docs, problems, err := NewScanner(docsDir).Scan()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, problems, 1)
	require.Equal(t, "odd.md", problems[0].Path)
	require.Equal(t, "year", problems[0].Field)
	require.Equal(t, []string{"go"}, docs[0].Tags)
	require.False(t, docs[0].HasYear)
}

func TestScan_HiddenDirsAndFiles_Skipped(t *testing.T) {
	docsDir := t.TempDir()
	writeTree(t, docsDir, map[string]string{
		"visible.md":      "---\ntags: [a]\n---\n",
		".hidden.md":      "---\ntags: [a]\n---\n",
		".git/trap.md":    "---\ntags: [a]\n---\n",
		".cache/other.md": "---\ntags: [a]\n---\n",
	})

	docs, _, err := NewScanner(docsDir).Scan()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "visible.md", docs[0].Filename)
}

func TestScan_ExcludedDir_Skipped(t *testing.T) {
	docsDir := t.TempDir()
	writeTree(t, docsDir, map[string]string{
		"doc.md":          "---\ntags: [a]\n---\n",
		"aux/tag.a.md":    "generated page\n",
		"aux/tags.md":     "generated index\n",
		"nested/other.md": "no front matter\n",
	})

	docs, _, err := NewScanner(docsDir, filepath.Join(docsDir, "aux")).Scan()
	require.NoError(t, err)

	var names []string
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	require.Equal(t, []string{"doc.md", "nested/other.md"}, names)
}

func TestScan_MissingDocsDir_ReturnsError(t *testing.T) {
	_, _, err := NewScanner(filepath.Join(t.TempDir(), "nope")).Scan()
	require.Error(t, err)
}

func TestIsMarkdownFile_ExtensionVariants(t *testing.T) {
	require.True(t, isMarkdownFile("a.md"))
	require.True(t, isMarkdownFile("a.MD"))
	require.True(t, isMarkdownFile("a.markdown"))
	require.False(t, isMarkdownFile("a.txt"))
	require.False(t, isMarkdownFile("md"))
}
