package numbering

import (
	"context"
	"testing"
	"time"
)

var march5 = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

func TestFormatSequential(t *testing.T) {
	cfg := DefaultConfig("INV")

	cases := []struct {
		counter int64
		want    string
	}{
		{1, "INV-0001"},
		{42, "INV-0042"},
		{9999, "INV-9999"},
		{10000, "INV-10000"}, // counter outgrows the pad width
	}
	for _, tc := range cases {
		if got := cfg.Format(march5, tc.counter); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.counter, got, tc.want)
		}
	}
}

func TestFormatDateBased(t *testing.T) {
	cfg := Config{Prefix: "FATT", Scheme: SchemeDateBased, PadWidth: 4}

	got := cfg.Format(march5, 1)
	want := "FATT-05-03-2024-0001"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}

	// A different day yields a different scope, so counters restart.
	nextDay := march5.AddDate(0, 0, 1)
	if got := cfg.Format(nextDay, 1); got != "FATT-06-03-2024-0001" {
		t.Errorf("Format next day = %q", got)
	}
}

func TestFormatYearlyReset(t *testing.T) {
	cfg := Config{Prefix: "PREV", Scheme: SchemeYearlyReset, PadWidth: 4}

	if got := cfg.Format(march5, 17); got != "PREV2024-0017" {
		t.Errorf("Format = %q, want PREV2024-0017", got)
	}

	nextYear := march5.AddDate(1, 0, 0)
	if got := cfg.ScopePrefix(nextYear); got != "PREV2025-" {
		t.Errorf("ScopePrefix next year = %q, want PREV2025-", got)
	}
}

func TestFormatCustomPattern(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		counter int64
		want    string
	}{
		{"date and counter", "DOC-{YYYY}{MM}-{####}", 7, "DOC-202403-0007"},
		{"counter width three", "N-{###}", 12, "N-012"},
		{"no counter token", "FIX-{YYYY}", 5, "FIX-2024-0005"},
		{"counter mid-pattern", "{YYYY}-{####}-X", 2, "2024-0002-X"},
	}
	for _, tc := range cases {
		cfg := Config{Prefix: "DOC", Scheme: SchemeCustom, Pattern: tc.pattern}
		if got := cfg.Format(march5, tc.counter); got != tc.want {
			t.Errorf("%s: Format = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestScopePrefix(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{Prefix: "INV", Scheme: SchemeSequential}, "INV-"},
		{Config{Prefix: "FATT", Scheme: SchemeDateBased}, "FATT-05-03-2024-"},
		{Config{Prefix: "PREV", Scheme: SchemeYearlyReset}, "PREV2024-"},
		{Config{Prefix: "DOC", Scheme: SchemeCustom, Pattern: "D{YYYY}-{####}"}, "D2024-"},
		{Config{Prefix: "DOC", Scheme: SchemeCustom}, "DOC-"},
	}
	for _, tc := range cases {
		if got := tc.cfg.ScopePrefix(march5); got != tc.want {
			t.Errorf("ScopePrefix(%s) = %q, want %q", tc.cfg.Scheme, got, tc.want)
		}
	}
}

func TestParseCounter(t *testing.T) {
	cases := []struct {
		number string
		scope  string
		want   int64
	}{
		{"FATT-05-03-2024-0001", "FATT-05-03-2024-", 1},
		{"PREV2024-0042", "PREV2024-", 42},
		{"INV-10000", "INV-", 10000}, // past the pad width, length ordering still finds it
		{"INV-0001", "FATT-", -1},    // wrong series
		{"INV-", "INV-", -1},         // no digits after the scope
		{"INV-0007-rev2", "INV-", 7}, // trailing garbage after the counter is ignored
	}
	for _, tc := range cases {
		if got := ParseCounter(tc.number, tc.scope); got != tc.want {
			t.Errorf("ParseCounter(%q, %q) = %d, want %d", tc.number, tc.scope, got, tc.want)
		}
	}
}

func TestFallbackIsPrefixed(t *testing.T) {
	cfg := DefaultConfig("INV")
	got := cfg.Fallback(march5)
	want := "INV-1709634600000000000"
	if got != want {
		t.Errorf("Fallback = %q, want %q", got, want)
	}
}

func TestMockGeneratorMonotonic(t *testing.T) {
	gen := &MockGenerator{}
	cfg := DefaultConfig("TEST")
	ctx := context.Background()

	first := gen.Generate(ctx, "owner-a", cfg, march5)
	second := gen.Generate(ctx, "owner-a", cfg, march5)
	other := gen.Generate(ctx, "owner-b", cfg, march5)

	if first != "TEST-0001" || second != "TEST-0002" {
		t.Errorf("same-owner sequence = %q, %q", first, second)
	}
	if other != "TEST-0001" {
		t.Errorf("counters leak across owners: %q", other)
	}
}

func TestMockGeneratorOverride(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, ownerID string, cfg Config, now time.Time) string {
			return "FIXED-0001"
		},
	}
	if got := gen.Generate(context.Background(), "x", DefaultConfig("X"), march5); got != "FIXED-0001" {
		t.Errorf("override ignored, got %q", got)
	}
}
