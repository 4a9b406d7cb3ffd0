package tax

import (
	"context"

	"nexa/internal/core/types"
	"nexa/pkg/logger"
)

// Calculation methods carried on Totals so callers can tell how the
// numbers were produced.
const (
	// MethodEngine means the full tax engine ran.
	MethodEngine = "engine"

	// MethodSimplified means the engine failed and a flat-rate fallback
	// was used. Totals carry NoteSimplified and must be reviewed.
	MethodSimplified = "simplified"
)

// NoteSimplified marks totals produced by the flat-rate fallback.
const NoteSimplified = "simplified calculation - verify manually"

// CalcLine is one document position as the calculator sees it.
// DiscountPercent is a whole percentage (10 means 10%); DiscountAmount is
// a fixed reduction applied after the percentage.
type CalcLine struct {
	Quantity        types.Money
	UnitPrice       types.Money
	DiscountPercent types.Money
	DiscountAmount  types.Money

	IVARate         types.Money
	WithholdingRate types.Money
	ReverseCharge   bool
	Exempt          bool
}

// Subtotal returns quantity times price minus line discounts, floored at
// zero so an oversized discount cannot produce a negative position.
func (l CalcLine) Subtotal() types.Money {
	gross := l.Quantity.Mul(l.UnitPrice)
	discount := l.DiscountAmount.Add(gross.Mul(l.DiscountPercent).Div(hundred))
	net := gross.Sub(discount)
	if net.IsNegative() {
		return types.Zero()
	}
	return net
}

// Totals is the calculator output stored on documents.
type Totals struct {
	Subtotal          types.Money `json:"subtotal"`
	TaxAmount         types.Money `json:"taxAmount"`
	WithholdingAmount types.Money `json:"withholdingAmount"`
	Total             types.Money `json:"total"`
	NetPayable        types.Money `json:"netPayable"`

	// Method is MethodEngine or MethodSimplified
	Method string `json:"method"`

	// Note is set only for simplified results
	Note string `json:"note,omitempty"`

	// Breakdown is present only for engine results
	Breakdown *DocumentResult `json:"breakdown,omitempty"`
}

// Calculator produces document totals. It always returns a usable result:
// when the tax engine rejects the input, it degrades to a flat-rate
// calculation tagged MethodSimplified instead of failing the save.
type Calculator struct {
	engine Engine

	// fallbackRate is the flat rate used by the simplified path
	fallbackRate types.Money
}

// NewCalculator creates a totals calculator backed by engine.
// The simplified fallback uses the standard IVA rate.
func NewCalculator(engine Engine) *Calculator {
	return &Calculator{engine: engine, fallbackRate: RateStandard}
}

// Compute calculates totals for the given lines. An empty line set yields
// zero totals via the engine path.
func (c *Calculator) Compute(ctx context.Context, lines []CalcLine, doc DocumentParams) Totals {
	params := make([]LineParams, 0, len(lines))
	for _, l := range lines {
		rate := l.IVARate
		if rate.IsZero() && !l.Exempt && !l.ReverseCharge {
			rate = c.fallbackRate
		}
		params = append(params, LineParams{
			Amount:          types.RoundCurrency(l.Subtotal()),
			IVARate:         types.NormalizeRate(rate),
			WithholdingRate: types.NormalizeRate(l.WithholdingRate),
			ReverseCharge:   l.ReverseCharge,
			Exempt:          l.Exempt,
		})
	}

	result, err := c.engine.CalculateDocument(params, doc)
	if err != nil {
		logger.Warn(ctx, "tax engine failed, using simplified totals", "error", err)
		return c.simplified(lines)
	}

	return Totals{
		Subtotal:          result.BaseAmount,
		TaxAmount:         result.IVAAmount,
		WithholdingAmount: result.WithholdingAmount,
		Total:             result.TotalAmount,
		NetPayable:        result.NetAmount,
		Method:            MethodEngine,
		Breakdown:         &result,
	}
}

// simplified computes flat per-line totals without the engine: each line
// is taxed at its own normalized rate. Negative inputs (the usual reason
// the engine refused) are clamped per line; an unusable rate falls back
// to the standard one. Withholding is not attempted on this path.
func (c *Calculator) simplified(lines []CalcLine) Totals {
	subtotal := types.Zero()
	taxAmount := types.Zero()
	for _, l := range lines {
		amount := l.Subtotal()
		subtotal = subtotal.Add(amount)

		rate := types.NormalizeRate(l.IVARate)
		if rate.IsNegative() {
			rate = c.fallbackRate
		}
		if rate.IsZero() && !l.Exempt && !l.ReverseCharge {
			rate = c.fallbackRate
		}
		taxAmount = taxAmount.Add(amount.Mul(rate))
	}
	subtotal = types.RoundCurrency(subtotal)
	taxAmount = types.RoundCurrency(taxAmount)
	total := subtotal.Add(taxAmount)

	return Totals{
		Subtotal:          subtotal,
		TaxAmount:         taxAmount,
		WithholdingAmount: types.Zero(),
		Total:             total,
		NetPayable:        total,
		Method:            MethodSimplified,
		Note:              NoteSimplified,
	}
}
