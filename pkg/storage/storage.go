// Package storage provides the object store abstraction used for uploaded
// statement files, with local filesystem and in-memory implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the interface for statement file storage.
type ObjectStore interface {
	// Put stores the content under key, overwriting any existing object.
	Put(ctx context.Context, key string, contentType string, r io.Reader) error

	// Get returns a reader for the object at key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config holds storage configuration.
type Config struct {
	Type      string
	LocalPath string
}

// New creates an ObjectStore based on configuration.
func New(cfg *Config) (ObjectStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemory(), nil
	case "local", "":
		return NewLocal(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

// StatementKey builds the canonical storage key for an uploaded statement.
func StatementKey(userID uuid.UUID, filename string) string {
	return fmt.Sprintf("statements/%s/%s_%s", userID, uuid.New().String()[:8], sanitizeFilename(filename))
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
