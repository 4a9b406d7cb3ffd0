package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexa/internal/core/types"
)

var domestic = DocumentParams{ClientCountry: "IT"}

func TestCalculateLineStandardRate(t *testing.T) {
	engine := NewIVAEngine()

	r, err := engine.CalculateLineInContext(LineParams{
		Amount:  types.MustMoney("1000"),
		IVARate: RateStandard,
	}, domestic)
	require.NoError(t, err)

	assert.True(t, r.IVAAmount.Equal(types.MustMoney("220")), "iva = %s", r.IVAAmount)
	assert.True(t, r.TotalAmount.Equal(types.MustMoney("1220")), "total = %s", r.TotalAmount)
	assert.True(t, r.NetAmount.Equal(types.MustMoney("1220")))
	assert.True(t, r.WithholdingAmount.IsZero())
	assert.Equal(t, "22% IVA Ordinaria", r.IVALabel)
	assert.Empty(t, r.WithholdingLabel)
}

func TestCalculateLineWithholdingOnBase(t *testing.T) {
	engine := NewIVAEngine()

	r, err := engine.CalculateLineInContext(LineParams{
		Amount:          types.MustMoney("1000"),
		IVARate:         RateStandard,
		WithholdingRate: WithholdingProfessionals,
	}, domestic)
	require.NoError(t, err)

	// Withholding applies to the base, never to base+IVA.
	assert.True(t, r.WithholdingAmount.Equal(types.MustMoney("200")), "withholding = %s", r.WithholdingAmount)
	assert.True(t, r.TotalAmount.Equal(types.MustMoney("1220")))
	assert.True(t, r.NetAmount.Equal(types.MustMoney("1020")), "net = %s", r.NetAmount)
	assert.Equal(t, "20% Ritenuta d'Acconto", r.WithholdingLabel)
}

func TestCalculateLineReverseChargeApplied(t *testing.T) {
	engine := NewIVAEngine()
	doc := DocumentParams{ClientCountry: "DE", ClientVATNumber: "DE123456789"}

	r, err := engine.CalculateLineInContext(LineParams{
		Amount:        types.MustMoney("500"),
		IVARate:       RateStandard,
		ReverseCharge: true,
	}, doc)
	require.NoError(t, err)

	assert.True(t, r.ReverseCharge)
	assert.True(t, r.IVAAmount.IsZero())
	assert.True(t, r.TotalAmount.Equal(types.MustMoney("500")))
	assert.Equal(t, LabelReverseCharge, r.IVALabel)
	assert.Equal(t, NoteReverseCharge, r.TaxNote)
	assert.Contains(t, r.ComplianceNotes, complianceReverseChargeApplied)
}

func TestCalculateLineReverseChargeDowngraded(t *testing.T) {
	engine := NewIVAEngine()

	cases := []struct {
		name string
		doc  DocumentParams
	}{
		{"non-EU client", DocumentParams{ClientCountry: "US", ClientVATNumber: "123"}},
		{"italian client", DocumentParams{ClientCountry: "IT", ClientVATNumber: "IT123"}},
		{"missing VAT number", DocumentParams{ClientCountry: "FR"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := engine.CalculateLineInContext(LineParams{
				Amount:        types.MustMoney("500"),
				IVARate:       RateStandard,
				ReverseCharge: true,
			}, tc.doc)
			require.NoError(t, err)

			// Falls back to a standard charge with a compliance note.
			assert.False(t, r.ReverseCharge)
			assert.True(t, r.IVAAmount.Equal(types.MustMoney("110")), "iva = %s", r.IVAAmount)
			assert.True(t, r.TotalAmount.Equal(types.MustMoney("610")))
			assert.Contains(t, r.ComplianceNotes, complianceReverseChargeNotApplicable)
		})
	}
}

func TestCalculateLineExempt(t *testing.T) {
	engine := NewIVAEngine()

	r, err := engine.CalculateLineInContext(LineParams{
		Amount: types.MustMoney("300"),
		Exempt: true,
	}, domestic)
	require.NoError(t, err)

	assert.True(t, r.IVAAmount.IsZero())
	assert.True(t, r.TotalAmount.Equal(types.MustMoney("300")))
	assert.Equal(t, LabelExempt, r.IVALabel)
	assert.Equal(t, NoteExempt, r.TaxNote)
}

func TestCalculateLineRejectsNegatives(t *testing.T) {
	engine := NewIVAEngine()

	_, err := engine.CalculateLine(LineParams{Amount: types.MustMoney("-1")})
	assert.Error(t, err)

	_, err = engine.CalculateLine(LineParams{
		Amount:  types.MustMoney("10"),
		IVARate: types.MustMoney("-0.22"),
	})
	assert.Error(t, err)
}

func TestCalculateDocumentAggregates(t *testing.T) {
	engine := NewIVAEngine()

	lines := []LineParams{
		{Amount: types.MustMoney("1000"), IVARate: RateStandard, WithholdingRate: WithholdingProfessionals},
		{Amount: types.MustMoney("200"), IVARate: RateReduced},
		{Amount: types.MustMoney("100"), Exempt: true},
	}

	out, err := engine.CalculateDocument(lines, domestic)
	require.NoError(t, err)

	assert.True(t, out.BaseAmount.Equal(types.MustMoney("1300")), "base = %s", out.BaseAmount)
	assert.True(t, out.IVAAmount.Equal(types.MustMoney("240")), "iva = %s", out.IVAAmount)
	assert.True(t, out.WithholdingAmount.Equal(types.MustMoney("200")))
	assert.True(t, out.TotalAmount.Equal(types.MustMoney("1540")))
	assert.True(t, out.NetAmount.Equal(types.MustMoney("1340")))

	assert.Len(t, out.Lines, 3)
	assert.True(t, out.HasExemptLines)
	assert.False(t, out.HasReverseCharge)

	// One breakdown bucket per rate label.
	require.Contains(t, out.IVABreakdown, "22% IVA Ordinaria")
	require.Contains(t, out.IVABreakdown, "10% IVA Ridotta")
	require.Contains(t, out.IVABreakdown, LabelExempt)
	assert.True(t, out.IVABreakdown["22% IVA Ordinaria"].TaxAmount.Equal(types.MustMoney("220")))

	require.Contains(t, out.WithholdingBreakdown, "20% Ritenuta d'Acconto")
	assert.Contains(t, out.ComplianceNotes, complianceWithholdingPayment)
	assert.Contains(t, out.ComplianceNotes, complianceInvoiceExempt)
}

func TestCalculateDocumentEmpty(t *testing.T) {
	engine := NewIVAEngine()

	out, err := engine.CalculateDocument(nil, domestic)
	require.NoError(t, err)

	assert.True(t, out.BaseAmount.IsZero())
	assert.True(t, out.TotalAmount.IsZero())
	assert.Empty(t, out.Lines)
	assert.Empty(t, out.ComplianceNotes)
}

func TestIsEUCountry(t *testing.T) {
	assert.True(t, IsEUCountry("DE"))
	assert.True(t, IsEUCountry("it"))
	assert.False(t, IsEUCountry("US"))
	assert.False(t, IsEUCountry("GB")) // post-Brexit
	assert.False(t, IsEUCountry(""))
	assert.False(t, IsEUCountry("DEU"))
}

func TestIVALabelCustomRate(t *testing.T) {
	assert.Equal(t, "5% IVA", IVALabel(types.MustMoney("0.05"), false, false))
	assert.Equal(t, LabelExempt, IVALabel(types.Zero(), false, false))
}

func TestCategoryByType(t *testing.T) {
	c := CategoryByType("consulting")
	assert.True(t, c.IVARate.Equal(RateStandard))
	assert.True(t, c.WithholdingRate.Equal(WithholdingProfessionals))

	unknown := CategoryByType("something_else")
	assert.True(t, unknown.IVARate.Equal(RateStandard))
	assert.True(t, unknown.WithholdingRate.IsZero())
}
