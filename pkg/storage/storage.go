// Package storage archives uploaded statement files so an import can be
// audited or replayed later.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about an archived statement file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for statement archive operations
type Storage interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, userID string, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// GetReader returns a reader for an archived file
	GetReader(ctx context.Context, userID string, fileID uuid.UUID) (io.ReadCloser, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, userID string, fileID uuid.UUID) (*FileInfo, error)

	// List returns all archived files for a user
	List(ctx context.Context, userID string) ([]*FileInfo, error)

	// Delete removes an archived file by its ID
	Delete(ctx context.Context, userID string, fileID uuid.UUID) error
}

// Config holds storage configuration
type Config struct {
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	path := cfg.LocalPath
	if path == "" {
		path = "./uploads"
	}
	return NewLocalStorage(path)
}
