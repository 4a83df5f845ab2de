// Package storage implements the image storage layer: a resolver that
// classifies historical image references, local-filesystem and S3-compatible
// backends behind one interface, and the image service that orchestrates
// uploads, deletes and URL generation on top of them.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// DefaultCollection is the fixed key prefix for object-store uploads.
const DefaultCollection = "tucano-motorcycle"

var (
	// ErrNotFound indicates the resolved key has no corresponding object.
	ErrNotFound = errors.New("storage: object not found")
	// ErrUnavailable indicates the backend is unreachable or misconfigured.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// Object is a stored blob opened for reading.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// Backend performs physical put/get/delete against one storage technology.
// Exactly one implementation is selected at startup and held for the process
// lifetime; callers never switch backends mid-operation.
type Backend interface {
	// Put stores data under a freshly generated key derived from originalName
	// and returns that key. Keys, never full URLs, are the canonical stored
	// value: they survive endpoint and bucket reconfiguration.
	Put(ctx context.Context, data []byte, originalName string) (string, error)
	// Get opens the object at key. Returns ErrNotFound when absent and
	// ErrUnavailable when the backend cannot serve the request.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete removes the object at key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the client-facing URL for a key owned by this backend.
	URL(key string) string
	// Name identifies the backend in logs and error messages.
	Name() string
}

// contentTypeForExt maps a file extension to an image MIME type.
// jpg maps to image/jpeg; other extensions pass through as image/<ext>.
func contentTypeForExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "jpg"
	}
	if ext == "jpg" {
		return "image/jpeg"
	}
	return "image/" + ext
}
