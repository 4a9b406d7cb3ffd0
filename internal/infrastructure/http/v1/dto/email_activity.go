package dto

import (
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/domain/emailactivity"
)

// --- Requests ---

// RecordEmailActivityRequest logs one outbound document email.
type RecordEmailActivityRequest struct {
	ClientID   string `json:"clientId" binding:"required"`
	ClientName string `json:"clientName"`

	InvoiceID string `json:"invoiceId"`
	QuoteID   string `json:"quoteId"`

	Type         string `json:"type" binding:"required"`
	Status       string `json:"status"`
	TemplateType string `json:"templateType"`

	Recipient string `json:"recipient" binding:"required"`
	Subject   string `json:"subject"`

	SentAt *time.Time `json:"sentAt"`
}

// ToEntity converts the request into an activity record.
func (r RecordEmailActivityRequest) ToEntity(ownerID id.ID) (*emailactivity.Activity, error) {
	clientID, err := id.Parse(r.ClientID)
	if err != nil {
		return nil, apperror.NewValidation("invalid client id").WithDetail("clientId", r.ClientID)
	}

	activity := &emailactivity.Activity{
		OwnerID:      ownerID,
		ClientID:     clientID,
		ClientName:   r.ClientName,
		Type:         r.Type,
		Status:       r.Status,
		TemplateType: r.TemplateType,
		Recipient:    r.Recipient,
		Subject:      r.Subject,
	}
	if r.SentAt != nil {
		activity.SentAt = *r.SentAt
	}
	if r.InvoiceID != "" {
		invoiceID, err := id.Parse(r.InvoiceID)
		if err != nil {
			return nil, apperror.NewValidation("invalid invoice id").WithDetail("invoiceId", r.InvoiceID)
		}
		activity.InvoiceID = &invoiceID
	}
	if r.QuoteID != "" {
		quoteID, err := id.Parse(r.QuoteID)
		if err != nil {
			return nil, apperror.NewValidation("invalid quote id").WithDetail("quoteId", r.QuoteID)
		}
		activity.QuoteID = &quoteID
	}
	return activity, nil
}

// UpdateEmailStatusRequest moves a record to a new delivery status.
type UpdateEmailStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Responses ---

// EmailActivityResponse contains one activity record.
type EmailActivityResponse struct {
	ID         string `json:"id"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName,omitempty"`

	InvoiceID *string `json:"invoiceId,omitempty"`
	QuoteID   *string `json:"quoteId,omitempty"`

	Type         string `json:"type"`
	Status       string `json:"status"`
	TemplateType string `json:"templateType,omitempty"`

	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`

	SentAt    time.Time `json:"sentAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromEmailActivity creates EmailActivityResponse from an activity.
func FromEmailActivity(a *emailactivity.Activity) EmailActivityResponse {
	resp := EmailActivityResponse{
		ID:           a.ID.String(),
		ClientID:     a.ClientID.String(),
		ClientName:   a.ClientName,
		Type:         a.Type,
		Status:       a.Status,
		TemplateType: a.TemplateType,
		Recipient:    a.Recipient,
		Subject:      a.Subject,
		SentAt:       a.SentAt,
		CreatedAt:    a.CreatedAt,
	}
	if a.InvoiceID != nil {
		s := a.InvoiceID.String()
		resp.InvoiceID = &s
	}
	if a.QuoteID != nil {
		s := a.QuoteID.String()
		resp.QuoteID = &s
	}
	return resp
}
