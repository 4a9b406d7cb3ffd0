package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"nexa/internal/core/apperror"
	"nexa/internal/domain/events"
	"nexa/internal/infrastructure/http/v1/dto"
)

// EventHandler serves the calendar events derived from documents.
type EventHandler struct {
	*BaseHandler
	repo events.Repository
}

// NewEventHandler creates a new calendar event handler.
func NewEventHandler(base *BaseHandler, repo events.Repository) *EventHandler {
	return &EventHandler{
		BaseHandler: base,
		repo:        repo,
	}
}

// List handles GET /events?from=...&to=... over [from, to).
// Default window is the current month.
func (h *EventHandler) List(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if t := h.ParseDateQuery(c, "from"); t != nil {
		from = *t
	}
	if t := h.ParseDateQuery(c, "to"); t != nil {
		to = *t
	}
	if !to.After(from) {
		h.Error(c, apperror.NewValidation("'to' must be after 'from'").
			WithDetail("from", from).
			WithDetail("to", to))
		return
	}

	list, err := h.repo.ListRange(c.Request.Context(), ownerID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.EventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.FromEvent(e))
	}
	h.OK(c, out)
}
