// Package events provides calendar events derived from business documents.
// An invoice carries a due-date event, a quote an expiry event; the owning
// document keeps its event in sync on every write.
package events

import (
	"context"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
)

// Event types.
const (
	TypeInvoiceDue  = "invoice_due"
	TypeQuoteExpiry = "quote_expiry"
)

// Event is one calendar entry linked to a document.
type Event struct {
	ID      id.ID  `db:"id" json:"id"`
	OwnerID id.ID  `db:"owner_id" json:"ownerId"`
	Type    string `db:"type" json:"type"`

	// DocumentID links back to the invoice or quote
	DocumentID id.ID `db:"document_id" json:"documentId"`

	Title    string    `db:"title" json:"title"`
	StartsAt time.Time `db:"starts_at" json:"startsAt"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates an event for a document.
func New(ownerID, documentID id.ID, eventType, title string, startsAt time.Time) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:         id.New(),
		OwnerID:    ownerID,
		Type:       eventType,
		DocumentID: documentID,
		Title:      title,
		StartsAt:   startsAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks event invariants.
func (e *Event) Validate(ctx context.Context) error {
	if id.IsNil(e.OwnerID) {
		return apperror.NewValidation("owner is required").WithDetail("field", "ownerId")
	}
	if id.IsNil(e.DocumentID) {
		return apperror.NewValidation("document is required").WithDetail("field", "documentId")
	}
	if e.Type != TypeInvoiceDue && e.Type != TypeQuoteExpiry {
		return apperror.NewValidation("unknown event type").WithDetail("type", e.Type)
	}
	if e.StartsAt.IsZero() {
		return apperror.NewValidation("start time is required").WithDetail("field", "startsAt")
	}
	return nil
}

// Repository persists calendar events.
type Repository interface {
	Create(ctx context.Context, event *Event) error

	// UpsertForDocument replaces the document's event of the given type,
	// creating it when missing.
	UpsertForDocument(ctx context.Context, event *Event) error

	// DeleteByDocument removes all events linked to a document.
	// Deleting zero rows is not an error.
	DeleteByDocument(ctx context.Context, ownerID, documentID id.ID) error

	// ListRange returns the owner's events overlapping [from, to).
	ListRange(ctx context.Context, ownerID id.ID, from, to time.Time) ([]*Event, error)
}
