// Package handlers provides HTTP handlers for API v1.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nexa/internal/core/apperror"
	appctx "nexa/internal/core/context"
	"nexa/internal/core/id"
	"nexa/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OwnerID extracts the authenticated owner from request context.
// Routes behind the auth middleware always have it; a miss is a 401.
func (h *BaseHandler) OwnerID(c *gin.Context) (id.ID, bool) {
	raw := appctx.GetOwnerID(c.Request.Context())
	if raw == "" {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return id.Nil(), false
	}
	ownerID, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid owner identity"))
		return id.Nil(), false
	}
	return ownerID, true
}

// ParseID parses the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (id.ID, bool) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return docID, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseDateQuery parses an RFC 3339 or YYYY-MM-DD query parameter.
func (h *BaseHandler) ParseDateQuery(c *gin.Context, key string) *time.Time {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return &t
	}
	return nil
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
