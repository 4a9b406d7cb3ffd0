package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/domain/emailactivity"
	"nexa/internal/infrastructure/http/v1/dto"
)

// EmailActivityHandler handles HTTP requests for email activity and its
// analytics.
type EmailActivityHandler struct {
	*BaseHandler
	service *emailactivity.Service
}

// NewEmailActivityHandler creates a new email activity handler.
func NewEmailActivityHandler(base *BaseHandler, service *emailactivity.Service) *EmailActivityHandler {
	return &EmailActivityHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Record handles POST /email-activity.
func (h *EmailActivityHandler) Record(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	var req dto.RecordEmailActivityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	activity, err := req.ToEntity(ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Record(c.Request.Context(), activity); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromEmailActivity(activity))
}

// UpdateStatus handles POST /email-activity/:id/status.
func (h *EmailActivityHandler) UpdateStatus(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	activityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateEmailStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), ownerID, activityID, req.Status); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /email-activity.
func (h *EmailActivityHandler) List(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	activity, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.EmailActivityResponse, 0, len(activity))
	for _, a := range activity {
		out = append(out, dto.FromEmailActivity(a))
	}
	h.OK(c, out)
}

// Summary handles GET /email-activity/summary - the full analytics view.
func (h *EmailActivityHandler) Summary(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

func (h *EmailActivityHandler) parseFilter(c *gin.Context) (emailactivity.ListFilter, bool) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return emailactivity.ListFilter{}, false
	}

	filter := emailactivity.ListFilter{
		OwnerID:  ownerID,
		Types:    c.QueryArray("type"),
		DateFrom: h.ParseDateQuery(c, "dateFrom"),
		DateTo:   h.ParseDateQuery(c, "dateTo"),
		Limit:    h.ParseIntQuery(c, "limit", 0),
	}

	if raw := c.Query("clientId"); raw != "" {
		clientID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid client id").WithDetail("clientId", raw))
			return emailactivity.ListFilter{}, false
		}
		filter.ClientID = &clientID
	}

	return filter, true
}
