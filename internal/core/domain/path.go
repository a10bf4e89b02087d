package domain

import (
	"fmt"
	"path"
	"strings"
)

// CleanPath normalizes a client-supplied relative path into a catalog
// path. Absolute paths and parent traversal are rejected.
func CleanPath(raw string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/")
	if p == "" {
		return "", WrapError(ErrInvalidInput, "clean path", fmt.Errorf("empty path"))
	}
	if strings.HasPrefix(p, "/") {
		return "", WrapError(ErrInvalidInput, "clean path", fmt.Errorf("absolute path %q", raw))
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", WrapError(ErrInvalidInput, "clean path", fmt.Errorf("path %q escapes upload root", raw))
	}
	return p, nil
}
