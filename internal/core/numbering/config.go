// Package numbering provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numbering

import (
	"fmt"
	"strings"
	"time"
)

// Scheme selects the number format for a document series.
type Scheme string

const (
	// SchemeSequential produces PREFIX-0001, PREFIX-0002, ...
	SchemeSequential Scheme = "sequential"

	// SchemeDateBased produces PREFIX-DD-MM-YYYY-0001; the counter resets
	// implicitly because the date segment changes daily.
	SchemeDateBased Scheme = "dateBased"

	// SchemeYearlyReset produces PREFIXYYYY-0001, scoped to the year prefix.
	SchemeYearlyReset Scheme = "yearlyReset"

	// SchemeCustom combines a caller-supplied pattern with a sequential
	// counter. Recognized pattern tokens: {YYYY} {MM} {DD} {####} {###} {##}.
	SchemeCustom Scheme = "custom"
)

// Config holds numbering configuration for one document series.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "FATT")
	Prefix string

	// Scheme selects the format
	Scheme Scheme

	// Pattern is only used by SchemeCustom; empty means plain sequential
	// under Prefix.
	Pattern string

	// PadWidth is the minimum counter width (default 4)
	PadWidth int
}

// DefaultConfig returns sensible defaults for a prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		Scheme:   SchemeSequential,
		PadWidth: 4,
	}
}

func (c Config) padWidth() int {
	if c.PadWidth <= 0 {
		return 4
	}
	return c.PadWidth
}

// ScopePrefix returns the literal prefix that scopes the counter lookup:
// every number already issued in this series starts with it.
func (c Config) ScopePrefix(now time.Time) string {
	switch c.Scheme {
	case SchemeDateBased:
		return fmt.Sprintf("%s-%02d-%02d-%04d-", c.Prefix, now.Day(), int(now.Month()), now.Year())
	case SchemeYearlyReset:
		return fmt.Sprintf("%s%04d-", c.Prefix, now.Year())
	case SchemeCustom:
		if c.Pattern != "" {
			before, _ := splitPattern(expandDateTokens(c.Pattern, now))
			return before
		}
		return c.Prefix + "-"
	default:
		return c.Prefix + "-"
	}
}

// Format renders the full number for a counter value.
func (c Config) Format(now time.Time, counter int64) string {
	if c.Scheme == SchemeCustom && c.Pattern != "" {
		expanded := expandDateTokens(c.Pattern, now)
		before, rest := splitPattern(expanded)
		width := c.padWidth()
		if w := tokenWidth(expanded); w > 0 {
			width = w
		}
		return fmt.Sprintf("%s%0*d%s", before, width, counter, rest)
	}
	return fmt.Sprintf("%s%0*d", c.ScopePrefix(now), c.padWidth(), counter)
}

// Fallback returns a guaranteed-unique number used when the counter lookup
// fails: the configured prefix plus a high-resolution timestamp.
func (c Config) Fallback(now time.Time) string {
	return fmt.Sprintf("%s-%d", c.Prefix, now.UnixNano())
}

var counterTokens = []string{"{####}", "{###}", "{##}"}

// splitPattern cuts an expanded pattern at its first counter token.
// When no token is present the counter is appended after a dash.
func splitPattern(pattern string) (before, after string) {
	for _, token := range counterTokens {
		if idx := strings.Index(pattern, token); idx >= 0 {
			return pattern[:idx], pattern[idx+len(token):]
		}
	}
	return pattern + "-", ""
}

func tokenWidth(pattern string) int {
	for _, token := range counterTokens {
		if strings.Contains(pattern, token) {
			return len(token) - 2
		}
	}
	return 0
}

func expandDateTokens(pattern string, now time.Time) string {
	r := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", now.Year()),
		"{MM}", fmt.Sprintf("%02d", int(now.Month())),
		"{DD}", fmt.Sprintf("%02d", now.Day()),
	)
	return r.Replace(pattern)
}

// ParseCounter extracts the counter from a number issued under the given
// scope prefix. Returns -1 when the number does not belong to the series.
func ParseCounter(number, scopePrefix string) int64 {
	if !strings.HasPrefix(number, scopePrefix) {
		return -1
	}
	rest := number[len(scopePrefix):]
	var n int64
	var seen bool
	for _, r := range rest {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
		seen = true
	}
	if !seen {
		return -1
	}
	return n
}
