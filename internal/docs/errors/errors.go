package errors

// Package errors provides sentinel errors for document scanning operations.
// These enable consistent classification of scan stage failures.

import "errors"

var (
	// ErrDocsPathNotFound indicates the configured docs directory does not exist.
	ErrDocsPathNotFound = errors.New("docs directory not found")

	// ErrDocsDirWalkFailed indicates filesystem traversal of the docs directory failed.
	ErrDocsDirWalkFailed = errors.New("docs directory walk failed")

	// ErrFileReadFailed indicates reading a scanned document failed.
	ErrFileReadFailed = errors.New("document read failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the docs dir failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
