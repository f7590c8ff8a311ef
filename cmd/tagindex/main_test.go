package main

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	helpers "git.home.luguber.info/inful/tagindex/internal/testutil/testutils"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagindex.yaml")

	if err := runInit(path, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected starter config: %v", err)
	}

	if err := runInit(path, false); err == nil {
		t.Fatal("expected error for existing file without force")
	} else if !errors.IsCategory(err, errors.CategoryConfig) {
		t.Fatalf("expected config category, got %v", err)
	}

	if err := runInit(path, true); err != nil {
		t.Fatalf("forced init: %v", err)
	}
}

func TestRunBuildFromConfigFile(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	writeFile(t, filepath.Join(docs, "a.md"), "---\ntitle: Alpha\ntags: [go]\n---\n\nbody\n")
	writeFile(t, filepath.Join(docs, "b.md"), "---\ntitle: Beta\ntags: [go, infra]\n---\n\nbody\n")

	cfgPath := filepath.Join(root, "tagindex.yaml")
	writeFile(t, cfgPath,
		"site:\n  docs_dir: "+docs+"\n  site_dir: "+filepath.Join(root, "site")+"\n")

	if err := runBuild(cfgPath, false); err != nil {
		t.Fatalf("build: %v", err)
	}

	helpers.NewPageAssertions(t, filepath.Join(root, "aux")).
		AssertExists("tags.md").
		AssertExists("tag.go.md").
		AssertExists("tag.infra.md").
		AssertContains("tags.md", "[go](tag.go.md)")

	if _, err := os.Stat(filepath.Join(root, "tagindex-report.json")); err != nil {
		t.Fatalf("expected pass report next to the tags folder: %v", err)
	}
}

func TestRunBuildStrictFlag(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	writeFile(t, filepath.Join(docs, "bad.md"), "---\ntitle: [unclosed\n---\n\nbody\n")

	cfgPath := filepath.Join(root, "tagindex.yaml")
	writeFile(t, cfgPath,
		"site:\n  docs_dir: "+docs+"\n  site_dir: "+filepath.Join(root, "site")+"\n")

	if err := runBuild(cfgPath, false); err != nil {
		t.Fatalf("lenient build should degrade instead of failing, got %v", err)
	}
	if err := runBuild(cfgPath, true); err == nil {
		t.Fatal("strict build should fail on parse problems")
	}
}

func TestRunScanStrict(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	writeFile(t, filepath.Join(docs, "ok.md"), "---\ntitle: OK\ntags: [go]\n---\n\nbody\n")
	writeFile(t, filepath.Join(docs, "bad.md"), "---\ntitle: [unclosed\n---\n\nbody\n")

	cfgPath := filepath.Join(root, "tagindex.yaml")
	writeFile(t, cfgPath, "site:\n  docs_dir: "+docs+"\nstrict: false\n")

	if err := runScan(cfgPath, false); err != nil {
		t.Fatalf("lenient scan: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "aux")); err == nil {
		t.Fatal("scan must not create output folders")
	}

	writeFile(t, cfgPath, "site:\n  docs_dir: "+docs+"\nstrict: true\n")
	err := runScan(cfgPath, true)
	if err == nil {
		t.Fatal("strict scan should fail on problems")
	}
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestRunScanGitSourceNeedsCheckout(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tagindex.yaml")
	writeFile(t, cfgPath,
		"site:\n  docs_dir: docs\nsource:\n  git:\n    url: https://example.com/docs.git\n    path: "+
			filepath.Join(root, "checkout")+"\n")

	err := runScan(cfgPath, false)
	if err == nil {
		t.Fatal("expected error without a local checkout")
	}
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}
