// Package emailactivity records outbound document emails and derives
// communication analytics from them.
package emailactivity

import (
	"context"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
)

// Activity types.
const (
	TypeInvoiceSent    = "invoice_sent"
	TypeQuoteSent      = "quote_sent"
	TypeReminderGentle = "reminder_gentle"
	TypeReminderFirm   = "reminder_firm"
	TypeReminderFinal  = "reminder_final"
)

// Delivery statuses. An email counts as successful once it is sent or
// delivered.
const (
	StatusQueued    = "queued"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Activity is one recorded email event.
type Activity struct {
	ID      id.ID `db:"id" json:"id"`
	OwnerID id.ID `db:"owner_id" json:"ownerId"`

	// Client the email went to
	ClientID   id.ID  `db:"client_id" json:"clientId"`
	ClientName string `db:"client_name" json:"clientName,omitempty"`

	// Linked document, at most one of the two
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`
	QuoteID   *id.ID `db:"quote_id" json:"quoteId,omitempty"`

	Type         string `db:"type" json:"type"`
	Status       string `db:"status" json:"status"`
	TemplateType string `db:"template_type" json:"templateType,omitempty"`

	Recipient string `db:"recipient" json:"recipient"`
	Subject   string `db:"subject" json:"subject,omitempty"`

	SentAt    time.Time `db:"sent_at" json:"sentAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsSuccessful reports whether the email reached the outbox or beyond.
func (a *Activity) IsSuccessful() bool {
	return a.Status == StatusSent || a.Status == StatusDelivered
}

// Validate checks activity invariants.
func (a *Activity) Validate(ctx context.Context) error {
	if id.IsNil(a.OwnerID) {
		return apperror.NewValidation("owner is required").WithDetail("field", "ownerId")
	}
	if id.IsNil(a.ClientID) {
		return apperror.NewValidation("client is required").WithDetail("field", "clientId")
	}
	if a.Type == "" {
		return apperror.NewValidation("type is required").WithDetail("field", "type")
	}
	if a.Recipient == "" {
		return apperror.NewValidation("recipient is required").WithDetail("field", "recipient")
	}
	if a.InvoiceID != nil && a.QuoteID != nil {
		return apperror.NewValidation("activity may reference an invoice or a quote, not both")
	}
	return nil
}

// ListFilter narrows activity queries. Zero fields are ignored.
type ListFilter struct {
	OwnerID  id.ID
	ClientID *id.ID
	Types    []string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// Repository persists email activity.
type Repository interface {
	Create(ctx context.Context, activity *Activity) error

	// UpdateStatus moves a record to a new delivery status.
	UpdateStatus(ctx context.Context, ownerID, activityID id.ID, status string) error

	// List returns activity matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Activity, error)
}
