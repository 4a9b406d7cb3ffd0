// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"

	"nexa/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
// Document-specific filters embed this struct.
type ListFilter struct {
	// Search performs case-insensitive search on number and client name
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// OrderBy specifies sorting (e.g., "issue_date", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Page returns the 1-based page number implied by Limit/Offset.
func (r ListResult[T]) Page() int {
	if r.Limit <= 0 {
		return 1
	}
	return r.Offset/r.Limit + 1
}

// TotalPages returns the number of pages for TotalCount at Limit page size.
func (r ListResult[T]) TotalPages() int {
	if r.Limit <= 0 {
		return 1
	}
	pages := int((r.TotalCount + int64(r.Limit) - 1) / int64(r.Limit))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
