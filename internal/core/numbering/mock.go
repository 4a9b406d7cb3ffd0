// Package numbering provides domain contracts for document auto-numbering.
package numbering

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, ownerID string, cfg Config, now time.Time) string

	mu       sync.Mutex
	counters map[string]int64
}

// Generate implements Generator. The default behavior keeps an in-memory
// counter per owner+scope so serialized calls are strictly increasing.
func (m *MockGenerator) Generate(ctx context.Context, ownerID string, cfg Config, now time.Time) string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, ownerID, cfg, now)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := fmt.Sprintf("%s:%s", ownerID, cfg.ScopePrefix(now))
	m.counters[key]++
	return cfg.Format(now, m.counters[key])
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
