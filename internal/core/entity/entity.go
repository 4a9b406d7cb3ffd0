// Package entity provides base types for all domain entities.
package entity

import (
	"context"
	"time"

	"nexa/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains fields common to all persisted entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// Document is the base type for business documents (invoices, quotes).
// Every document belongs to exactly one owner; all queries are scoped
// by OwnerID.
type Document struct {
	BaseEntity

	// OwnerID scopes the document to the account that created it
	OwnerID id.ID `db:"owner_id" json:"ownerId"`

	// Number is the document number (auto-generated, unique per owner)
	Number string `db:"number" json:"number"`

	// Status is the current lifecycle state
	Status string `db:"status" json:"status"`

	// Audit fields
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewDocument creates a new Document owned by ownerID.
func NewDocument(ownerID id.ID) Document {
	now := time.Now().UTC()
	return Document{
		BaseEntity: NewBaseEntity(),
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
	d.Version++
}
