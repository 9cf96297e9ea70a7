package domain

import (
	"context"
	"encoding/json"
)

// CreateResult reports what a create actually did. Replaced is true
// when the request fell through to a whole-file replace instead of a
// record append.
type CreateResult struct {
	Record   Record
	Replaced bool
}

type Service interface {
	// GetDocument returns the stored document verbatim.
	GetDocument(ctx context.Context, name string) (json.RawMessage, error)

	// GetRecord returns the first record whose identifier matches id.
	// ErrNotArray when the document is not array-typed.
	GetRecord(ctx context.Context, name, id string) (Record, error)

	// CreateRecord appends a record built from body to an array
	// document, stamping id/createdAt/createdBy. An array body, or an
	// existing non-array document, degrades to a whole-file replace.
	CreateRecord(ctx context.Context, name string, body json.RawMessage, actor string) (CreateResult, error)

	// ReplaceDocument overwrites the whole document with body,
	// regardless of prior shape or content.
	ReplaceDocument(ctx context.Context, name string, body json.RawMessage) error

	// UpdateRecord merges fields into the matching record. Identifier
	// and creation stamps are preserved; update stamps are refreshed.
	UpdateRecord(ctx context.Context, name, id string, fields Record, actor string) (Record, error)

	// DeleteRecord removes every record matching id. ErrNotFound when
	// nothing matched.
	DeleteRecord(ctx context.Context, name, id string) error

	// DeleteDocument removes the whole document. ErrNotFound when it
	// did not exist.
	DeleteDocument(ctx context.Context, name string) error
}
