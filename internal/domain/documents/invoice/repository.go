package invoice

import (
	"context"
	"time"

	"nexa/internal/core/id"
	"nexa/internal/domain"
)

// Repository defines persistence operations for invoices.
// Every method is scoped to an owner; records of other owners are invisible.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Invoice) error
	GetByID(ctx context.Context, ownerID, docID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, ownerID id.ID, number string) (*Invoice, error)
	Update(ctx context.Context, doc *Invoice) error
	Delete(ctx context.Context, ownerID, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// Locking
	GetForUpdate(ctx context.Context, ownerID, docID id.ID) (*Invoice, error)

	// MarkOverdue moves every issued or sent invoice with a due date
	// before asOf to overdue, returning the number of rows changed.
	MarkOverdue(ctx context.Context, ownerID id.ID, asOf time.Time) (int64, error)
}

// PaymentRepository persists recorded payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	ListByInvoice(ctx context.Context, ownerID, invoiceID id.ID) ([]*Payment, error)
}

// ListFilter for filtering invoices.
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
