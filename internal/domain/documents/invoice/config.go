package invoice

import "nexa/internal/core/numbering"

// NumberPrefix is the default series prefix for invoices (fatture).
const NumberPrefix = "FATT"

// DefaultNumbering returns the invoice numbering configuration:
// date-based numbers like FATT-05-03-2024-0001.
func DefaultNumbering() numbering.Config {
	cfg := numbering.DefaultConfig(NumberPrefix)
	cfg.Scheme = numbering.SchemeDateBased
	return cfg
}
