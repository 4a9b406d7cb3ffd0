// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"nexa/internal/core/id"
	"nexa/internal/domain"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

// NewListResponse maps a domain list result onto the wire shape.
func NewListResponse[T, R any](result domain.ListResult[T], mapFn func(T) R) ListResponse {
	items := make([]R, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapFn(item))
	}
	return ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
		Page:       result.Page(),
		TotalPages: result.TotalPages(),
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
