// Package documents provides shared types for business documents.
package documents

import (
	"nexa/internal/core/apperror"
)

// Invoice lifecycle statuses.
const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusIssued        = "issued"
	InvoiceStatusSent          = "sent"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusCancelled     = "cancelled"
	InvoiceStatusArchived      = "archived"
)

// Quote lifecycle statuses.
const (
	QuoteStatusDraft             = "draft"
	QuoteStatusSent              = "sent"
	QuoteStatusViewed            = "viewed"
	QuoteStatusAccepted          = "accepted"
	QuoteStatusRejected          = "rejected"
	QuoteStatusExpired           = "expired"
	QuoteStatusConverted         = "converted"
	QuoteStatusCancelled         = "cancelled"
	QuoteStatusRevisionRequested = "revision_requested"
)

// invoiceTransitions maps each invoice status to the statuses it may move to
// via a direct status change. "partially_paid" is never a valid target here:
// it is only entered by recording a partial payment.
var invoiceTransitions = map[string][]string{
	InvoiceStatusDraft:         {InvoiceStatusIssued, InvoiceStatusCancelled},
	InvoiceStatusIssued:        {InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusSent:          {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusPartiallyPaid: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusPaid:          {InvoiceStatusArchived},
	InvoiceStatusOverdue:       {InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusCancelled:     {},
	InvoiceStatusArchived:      {},
}

// quoteTransitions maps each quote status to its valid successors.
var quoteTransitions = map[string][]string{
	QuoteStatusDraft:             {QuoteStatusSent, QuoteStatusCancelled},
	QuoteStatusSent:              {QuoteStatusViewed, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusRevisionRequested},
	QuoteStatusViewed:            {QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusRevisionRequested},
	QuoteStatusAccepted:          {QuoteStatusConverted, QuoteStatusCancelled},
	QuoteStatusRejected:          {QuoteStatusRevisionRequested, QuoteStatusCancelled},
	QuoteStatusExpired:           {QuoteStatusSent, QuoteStatusCancelled},
	QuoteStatusConverted:         {},
	QuoteStatusCancelled:         {},
	QuoteStatusRevisionRequested: {QuoteStatusDraft, QuoteStatusSent},
}

// Lifecycle validates status transitions for a document type.
type Lifecycle struct {
	transitions map[string][]string
}

// InvoiceLifecycle returns the lifecycle for invoices.
func InvoiceLifecycle() *Lifecycle {
	return &Lifecycle{transitions: invoiceTransitions}
}

// QuoteLifecycle returns the lifecycle for quotes.
func QuoteLifecycle() *Lifecycle {
	return &Lifecycle{transitions: quoteTransitions}
}

// IsKnown reports whether status is part of this lifecycle.
func (l *Lifecycle) IsKnown(status string) bool {
	_, ok := l.transitions[status]
	return ok
}

// IsTerminal reports whether status has no outgoing transitions.
func (l *Lifecycle) IsTerminal(status string) bool {
	next, ok := l.transitions[status]
	return ok && len(next) == 0
}

// CanTransition reports whether moving current -> next is allowed.
// Unknown statuses never transition.
func (l *Lifecycle) CanTransition(current, next string) bool {
	for _, s := range l.transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// AvailableTransitions returns the valid successors of current.
// Returns an empty slice for terminal or unknown statuses.
func (l *Lifecycle) AvailableTransitions(current string) []string {
	next := l.transitions[current]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// ValidateTransition returns an error describing why current -> next is
// rejected, or nil if the transition is allowed.
func (l *Lifecycle) ValidateTransition(current, next string) error {
	if !l.IsKnown(next) {
		return apperror.NewValidation("unknown status").
			WithDetail("status", next)
	}
	if !l.CanTransition(current, next) {
		return apperror.NewIllegalTransition(current, next)
	}
	return nil
}
