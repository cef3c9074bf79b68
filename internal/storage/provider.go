// Package storage defines the content-directory file-system abstraction.
package storage

import "github.com/starford/mdxfix/internal/models"

// Provider is the interface for content file operations.
type Provider interface {
	// List returns metadata for every file under dir (relative to the content
	// root) whose base name matches pattern. Subdirectories are only entered
	// when recursive is set.
	List(dir, pattern string, recursive bool) ([]models.DocumentMeta, error)
	// Read returns the raw bytes of the file at path (relative to the content root).
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path (relative to the content root).
	Write(path string, content []byte) error
	// Abs resolves path (relative to the content root) to an absolute path.
	Abs(path string) (string, error)
	// Rel converts an absolute path under the content root to a relative one.
	Rel(abs string) (string, error)
}
