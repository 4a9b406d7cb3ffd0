// Package numbering provides domain contracts for document auto-numbering.
package numbering

import (
	"context"
	"time"
)

// Generator produces the next document number in a series.
// This is the domain contract - implementations live in infrastructure layer.
type Generator interface {
	// Generate returns the next number for the owner's series. It never
	// fails: on any lookup error the implementation must return the
	// timestamp fallback from Config.Fallback instead of propagating.
	//
	// The read-then-write window between Generate and the insert of the
	// numbered record is not atomic; a uniqueness constraint on
	// (owner_id, number) converts the race into a retryable conflict.
	Generate(ctx context.Context, ownerID string, cfg Config, now time.Time) string
}
