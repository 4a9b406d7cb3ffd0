package tax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexa/internal/core/apperror"
	"nexa/internal/core/types"
)

// failingEngine rejects every document, forcing the simplified path.
type failingEngine struct{}

func (failingEngine) CalculateLine(p LineParams) (LineResult, error) {
	return LineResult{}, apperror.NewValidation("rejected")
}

func (failingEngine) CalculateDocument(lines []LineParams, doc DocumentParams) (DocumentResult, error) {
	return DocumentResult{}, apperror.NewValidation("rejected")
}

func TestComputeEngineTotals(t *testing.T) {
	calc := NewCalculator(NewIVAEngine())

	lines := []CalcLine{
		{
			Quantity:  types.MustMoney("2"),
			UnitPrice: types.MustMoney("500"),
			IVARate:   RateStandard,
		},
		{
			Quantity:        types.MustMoney("1"),
			UnitPrice:       types.MustMoney("100"),
			DiscountPercent: types.MustMoney("10"),
			IVARate:         RateReduced,
		},
	}

	totals := calc.Compute(context.Background(), lines, domestic)

	assert.Equal(t, MethodEngine, totals.Method)
	assert.Empty(t, totals.Note)
	require.NotNil(t, totals.Breakdown)

	// 1000 + (100 - 10%) = 1090; IVA 220 + 9 = 229.
	assert.True(t, totals.Subtotal.Equal(types.MustMoney("1090")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("229")), "tax = %s", totals.TaxAmount)
	assert.True(t, totals.Total.Equal(types.MustMoney("1319")), "total = %s", totals.Total)
	assert.True(t, totals.NetPayable.Equal(totals.Total))
}

func TestComputeDefaultsMissingRate(t *testing.T) {
	calc := NewCalculator(NewIVAEngine())

	// No rate given: the standard rate is assumed for taxable lines.
	totals := calc.Compute(context.Background(), []CalcLine{
		{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100")},
	}, domestic)

	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("22")), "tax = %s", totals.TaxAmount)
}

func TestComputeNormalizesPercentageRates(t *testing.T) {
	calc := NewCalculator(NewIVAEngine())

	// 22 and 0.22 are the same rate; both notations appear in stored data.
	totals := calc.Compute(context.Background(), []CalcLine{
		{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100"), IVARate: types.MustMoney("22")},
	}, domestic)

	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("22")), "tax = %s", totals.TaxAmount)
}

func TestComputeEmptyLines(t *testing.T) {
	calc := NewCalculator(NewIVAEngine())

	totals := calc.Compute(context.Background(), nil, domestic)

	assert.Equal(t, MethodEngine, totals.Method)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestComputeSimplifiedFallback(t *testing.T) {
	calc := NewCalculator(failingEngine{})

	totals := calc.Compute(context.Background(), []CalcLine{
		{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100"), WithholdingRate: WithholdingProfessionals},
	}, domestic)

	assert.Equal(t, MethodSimplified, totals.Method)
	assert.Equal(t, NoteSimplified, totals.Note)
	assert.Nil(t, totals.Breakdown)

	// Standard rate assumed for the rateless line, no withholding on the
	// simplified path.
	assert.True(t, totals.Subtotal.Equal(types.MustMoney("100")))
	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("22")))
	assert.True(t, totals.WithholdingAmount.IsZero())
	assert.True(t, totals.Total.Equal(types.MustMoney("122")))
}

func TestComputeSimplifiedKeepsLineRates(t *testing.T) {
	// A negative withholding rate makes the real engine refuse the
	// document, so this exercises the fallback without a stub.
	calc := NewCalculator(NewIVAEngine())

	totals := calc.Compute(context.Background(), []CalcLine{
		{
			Quantity:        types.MustMoney("1"),
			UnitPrice:       types.MustMoney("100"),
			IVARate:         types.MustMoney("0.10"),
			WithholdingRate: types.MustMoney("-0.5"),
		},
	}, domestic)

	assert.Equal(t, MethodSimplified, totals.Method)
	// The line's own rate applies, not a flat default.
	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("10")), "tax = %s", totals.TaxAmount)
	assert.True(t, totals.Total.Equal(types.MustMoney("110")), "total = %s", totals.Total)
}

func TestComputeSimplifiedMixedRates(t *testing.T) {
	calc := NewCalculator(failingEngine{})

	totals := calc.Compute(context.Background(), []CalcLine{
		{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100"), IVARate: RateReduced},
		{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100"), Exempt: true},
		{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100"), IVARate: types.MustMoney("-1")},
	}, domestic)

	// 10 reduced + 0 exempt + 22 defaulted for the unusable rate.
	assert.True(t, totals.Subtotal.Equal(types.MustMoney("300")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("32")), "tax = %s", totals.TaxAmount)
}

func TestCalcLineSubtotal(t *testing.T) {
	cases := []struct {
		name string
		line CalcLine
		want string
	}{
		{
			"plain",
			CalcLine{Quantity: types.MustMoney("3"), UnitPrice: types.MustMoney("10")},
			"30",
		},
		{
			"percent discount",
			CalcLine{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("200"), DiscountPercent: types.MustMoney("25")},
			"150",
		},
		{
			"stacked discounts",
			CalcLine{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("100"), DiscountPercent: types.MustMoney("10"), DiscountAmount: types.MustMoney("5")},
			"85",
		},
		{
			"oversized discount floors at zero",
			CalcLine{Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("10"), DiscountAmount: types.MustMoney("50")},
			"0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.line.Subtotal()
			assert.True(t, got.Equal(types.MustMoney(tc.want)), "subtotal = %s, want %s", got, tc.want)
		})
	}
}
