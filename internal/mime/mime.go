// Package mime maps file extensions to Content-Type values.
package mime

import "github.com/LulzSec6824/StaticServer/internal/fileaccess"

// DefaultType is returned for unknown or missing extensions.
const DefaultType = "application/octet-stream"

// Table is built once by New and only read afterwards, so it can be shared
// by every connection without locking.
type Table struct {
	types map[string]string
}

// New returns the registry of supported types.
func New() *Table {
	return &Table{types: map[string]string{
		".html": "text/html",
		".htm":  "text/html",
		".css":  "text/css",
		".js":   "application/javascript",
		".json": "application/json",
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".svg":  "image/svg+xml",
		".ico":  "image/x-icon",
		".txt":  "text/plain",
		".pdf":  "application/pdf",
	}}
}

// ContentType returns the type for path, using whatever follows the last ".".
// The lookup is case-sensitive and falls back to DefaultType.
func (t *Table) ContentType(path string) string {
	if ct, ok := t.Lookup(fileaccess.Extension(path)); ok {
		return ct
	}
	return DefaultType
}

// Lookup returns the type registered for ext (leading dot included).
func (t *Table) Lookup(ext string) (string, bool) {
	ct, ok := t.types[ext]
	return ct, ok
}
