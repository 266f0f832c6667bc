// Package pathutil classifies and slices the normalized object paths used
// throughout pubgate. Paths are forward-slash separated and never carry a
// leading slash; the empty string and any path ending in "/" denote a
// directory, everything else a leaf object.
package pathutil

import (
	"errors"
	"strings"
)

// ErrInvalidPath is returned for paths that cannot be normalized safely.
var ErrInvalidPath = errors.New("invalid path")

// IsDir reports whether path denotes a directory.
func IsDir(path string) bool {
	return path == "" || strings.HasSuffix(path, "/")
}

// Depth returns the number of "/"-separated segment boundaries in path.
// A directory path counts its trailing slash: Depth("a/b/") == 2,
// Depth("a/b/c.txt") == 2, Depth("") == 0.
func Depth(path string) int {
	return strings.Count(path, "/")
}

// Ancestor truncates path to its first depth segments and re-appends a
// trailing slash, yielding the directory that a token of that scope depth
// was issued for. Ancestor("a/b/c/d.txt", 2) == "a/b/".
func Ancestor(path string, depth int) string {
	if depth <= 0 {
		return ""
	}
	parts := strings.Split(path, "/")
	if depth >= len(parts) {
		// Request is not deeper than the scope; keep it intact but
		// directory-shaped.
		if strings.HasSuffix(path, "/") {
			return path
		}
		return path + "/"
	}
	return strings.Join(parts[:depth], "/") + "/"
}

// Normalize strips the URL-style leading slash and validates that the path
// is already canonical. Traversal sequences, backslashes, null bytes and
// control characters are rejected rather than rewritten: the HTTP layer is
// expected to hand over canonicalized input.
func Normalize(path string) (string, error) {
	path = strings.TrimPrefix(path, "/")

	if strings.Contains(path, "\x00") || strings.Contains(path, "\\") {
		return "", ErrInvalidPath
	}
	for _, r := range path {
		if r < 32 {
			return "", ErrInvalidPath
		}
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." || seg == "." {
			return "", ErrInvalidPath
		}
	}
	if strings.Contains(path, "//") {
		return "", ErrInvalidPath
	}
	return path, nil
}
