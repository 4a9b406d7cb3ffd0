package dto

import (
	"time"

	"nexa/internal/domain/events"
)

// EventResponse contains one calendar event.
type EventResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"startsAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FromEvent creates EventResponse from an event.
func FromEvent(e *events.Event) EventResponse {
	return EventResponse{
		ID:         e.ID.String(),
		Type:       e.Type,
		DocumentID: e.DocumentID.String(),
		Title:      e.Title,
		StartsAt:   e.StartsAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
