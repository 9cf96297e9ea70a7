package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}

// ListFilter narrows an audit trail query. Zero values match
// everything.
type ListFilter struct {
	Actor    string
	Action   string
	Document string
	Limit    int
}

type Service interface {
	// AuditLog records one mutation. Callers treat failures as
	// best-effort; a failed audit write never fails the request.
	AuditLog(ctx context.Context, actor, action, document string, recordID *string, status int, metadata map[string]any) error

	List(ctx context.Context, filter ListFilter) ([]AuditLog, error)
}

var ErrInvalidAction = errors.New("invalid_action")
