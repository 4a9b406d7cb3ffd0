package quote

import (
	"context"
	"time"

	"nexa/internal/core/id"
	"nexa/internal/domain"
)

// Repository defines persistence operations for quotes.
// Every method is scoped to an owner; records of other owners are invisible.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Quote) error
	GetByID(ctx context.Context, ownerID, docID id.ID) (*Quote, error)
	GetByNumber(ctx context.Context, ownerID id.ID, number string) (*Quote, error)
	Update(ctx context.Context, doc *Quote) error
	Delete(ctx context.Context, ownerID, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quote], error)

	// Locking
	GetForUpdate(ctx context.Context, ownerID, docID id.ID) (*Quote, error)

	// MarkExpired moves every sent or viewed quote whose expiry date lies
	// before asOf to expired, returning the number of rows changed.
	MarkExpired(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error)
}

// ListFilter for filtering quotes.
type ListFilter struct {
	domain.ListFilter

	// OwnerID is required; List returns nothing without it
	OwnerID id.ID

	// Document-specific filters
	Statuses []string
	ClientID *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
}
