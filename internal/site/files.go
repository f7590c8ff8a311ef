// Package site models the host build this tool plugs into: the host
// configuration, the build file registry, and the lifecycle hooks a
// generation pass runs under.
package site

import (
	"path"
	"path/filepath"
	"strings"
)

// File is one entry of the host's build file registry. The host renders
// every registered file from SrcDir into DestDir.
type File struct {
	// Path is the file path relative to SrcDir, forward slashed.
	Path string

	// SrcDir is the directory the source file lives in.
	SrcDir string

	// DestDir is the site output directory the host renders into.
	DestDir string

	// UseDirectoryURLs selects pretty directory-style URLs for this file.
	// Generated tag pages always disable it so links resolve file-style.
	UseDirectoryURLs bool

	// Generated marks files this tool produced rather than authored sources.
	Generated bool
}

// AbsSrcPath returns the full source path of the file.
func (f File) AbsSrcPath() string {
	return filepath.Join(f.SrcDir, filepath.FromSlash(f.Path))
}

// DestPath returns the render target relative to DestDir. Directory-style
// files nest an index.html under their stem; file-style ones keep a flat
// .html name.
func (f File) DestPath() string {
	stem := strings.TrimSuffix(f.Path, path.Ext(f.Path))
	if f.UseDirectoryURLs {
		return path.Join(stem, "index.html")
	}
	return stem + ".html"
}

// URL returns the site-relative URL the host serves this file under.
func (f File) URL() string {
	stem := strings.TrimSuffix(f.Path, path.Ext(f.Path))
	if f.UseDirectoryURLs {
		return stem + "/"
	}
	return stem + ".html"
}

// Files is the host's ordered build file collection.
type Files struct {
	items []File
}

// NewFiles creates a file collection from the given entries.
func NewFiles(items ...File) *Files {
	fs := &Files{items: make([]File, 0, len(items))}
	fs.items = append(fs.items, items...)
	return fs
}

// Append adds a file to the collection, keeping insertion order.
func (fs *Files) Append(f File) {
	fs.items = append(fs.items, f)
}

// Len reports the number of registered files.
func (fs *Files) Len() int {
	return len(fs.items)
}

// All returns the registered files in insertion order.
func (fs *Files) All() []File {
	out := make([]File, len(fs.items))
	copy(out, fs.items)
	return out
}

// Generated returns only the files this tool registered.
func (fs *Files) Generated() []File {
	var out []File
	for _, f := range fs.items {
		if f.Generated {
			out = append(out, f)
		}
	}
	return out
}

// Paths returns the relative paths of all registered files in order.
func (fs *Files) Paths() []string {
	out := make([]string, 0, len(fs.items))
	for _, f := range fs.items {
		out = append(out, f.Path)
	}
	return out
}
