package helpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PageAssertions asserts over the generated pages a pass leaves under one
// directory, usually the resolved tags folder.
type PageAssertions struct {
	t   *testing.T
	dir string
}

// NewPageAssertions creates a page assertions helper rooted at dir.
func NewPageAssertions(t *testing.T, dir string) *PageAssertions {
	return &PageAssertions{t: t, dir: dir}
}

// AssertExists validates that a generated page exists.
func (pa *PageAssertions) AssertExists(name string) *PageAssertions {
	pa.t.Helper()
	path := filepath.Join(pa.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		pa.t.Errorf("Expected generated page to exist: %s", path)
	}
	return pa
}

// AssertAbsent validates that no page with the given name was generated.
func (pa *PageAssertions) AssertAbsent(name string) *PageAssertions {
	pa.t.Helper()
	path := filepath.Join(pa.dir, name)
	if _, err := os.Stat(path); err == nil {
		pa.t.Errorf("Expected no generated page at: %s", path)
	}
	return pa
}

// AssertContains validates that a generated page mentions the given content.
func (pa *PageAssertions) AssertContains(name, expected string) *PageAssertions {
	pa.t.Helper()
	content, ok := pa.read(name)
	if ok && !strings.Contains(content, expected) {
		pa.t.Errorf("Expected page %s to contain %q\nActual content:\n%s", name, expected, content)
	}
	return pa
}

// AssertNotContains validates that a generated page does not mention the
// given content.
func (pa *PageAssertions) AssertNotContains(name, unexpected string) *PageAssertions {
	pa.t.Helper()
	content, ok := pa.read(name)
	if ok && strings.Contains(content, unexpected) {
		pa.t.Errorf("Expected page %s not to contain %q\nActual content:\n%s", name, unexpected, content)
	}
	return pa
}

func (pa *PageAssertions) read(name string) (string, bool) {
	pa.t.Helper()
	path := filepath.Join(pa.dir, name)

	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(path)
	if err != nil {
		pa.t.Errorf("Failed to read page %s: %v", path, err)
		return "", false
	}
	return string(content), true
}
