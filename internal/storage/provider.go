// Package storage defines the content-root file-system abstraction.
package storage

import "github.com/starford/quire/internal/models"

// Provider is the interface for content file operations. Every path is
// relative to the provider's root; paths escaping the root fail with an
// apperr.ErrInvalidPath error.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.PostMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
