// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// OwnerContext identifies the authenticated user under whose namespace all
// documents and numbering sequences are scoped.
type OwnerContext struct {
	OwnerID   string
	Email     string
	SessionID string
}

type ownerContextKey struct{}

// WithOwner adds OwnerContext to context.
func WithOwner(ctx context.Context, owner *OwnerContext) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, owner)
}

// GetOwner returns OwnerContext from context.
func GetOwner(ctx context.Context) *OwnerContext {
	if v, ok := ctx.Value(ownerContextKey{}).(*OwnerContext); ok {
		return v
	}
	return nil
}

// GetOwnerID returns owner ID from context or empty string.
func GetOwnerID(ctx context.Context) string {
	if o := GetOwner(ctx); o != nil {
		return o.OwnerID
	}
	return ""
}
