package quote

import "nexa/internal/core/numbering"

// NumberPrefix is the default series prefix for quotes (preventivi).
const NumberPrefix = "PREV"

// DefaultNumbering returns the quote numbering configuration:
// yearly-reset numbers like PREV2024-0001.
func DefaultNumbering() numbering.Config {
	cfg := numbering.DefaultConfig(NumberPrefix)
	cfg.Scheme = numbering.SchemeYearlyReset
	return cfg
}
