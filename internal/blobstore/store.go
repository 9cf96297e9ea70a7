package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent document. Absence is a normal
// condition, not a backend failure.
var ErrNotFound = errors.New("blobstore: document not found")

// Store reads and writes whole named JSON documents. Writes replace
// the document atomically; there is no partial update.
type Store interface {
	// Get returns the raw contents of the named document, or
	// ErrNotFound when no such document exists.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put replaces the named document with data, creating it if
	// absent.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the named document. The boolean reports whether
	// the document existed.
	Delete(ctx context.Context, name string) (bool, error)
}
