// Package fileaccess is the thin filesystem layer behind the server: existence
// checks, whole-file reads, extension extraction, and resolving a request path
// inside the served root.
package fileaccess

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned by Resolve when a request path escapes the root.
var ErrOutsideRoot = errors.New("path escapes root directory")

// Exists reports whether something exists at path. It never fails.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadAll returns the bytes of the file at path. Directories are an error.
func ReadAll(path string) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("cannot read %s: is a directory", path)
	}
	return os.ReadFile(path)
}

// Extension returns the substring of path from its last ".", or "".
// Only the last dot counts: "archive.tar.gz" yields ".gz".
func Extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

// Resolve maps urlPath onto the filesystem under root.
//
// The joined path is cleaned and must stay inside root; when it exists, its
// symlinks are followed and the target must still be inside root.
func Resolve(root, urlPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", root, err)
	}

	// --- Path Sanitization ---
	// Join cleans away ".." segments; the result is then checked against the root.
	full := filepath.Join(absRoot, filepath.FromSlash(urlPath))
	if !within(absRoot, full) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, urlPath)
	}
	// A trailing "/" or "/." only names a directory, so "/index.html/" must not find the file.
	if (strings.HasSuffix(urlPath, "/") || strings.HasSuffix(urlPath, "/.")) &&
		!strings.HasSuffix(full, string(filepath.Separator)) {
		full += string(filepath.Separator)
	}

	if !Exists(full) {
		return full, nil
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", root, err)
	}
	realFull, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", urlPath, err)
	}
	if !within(realRoot, realFull) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, urlPath)
	}
	return full, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
