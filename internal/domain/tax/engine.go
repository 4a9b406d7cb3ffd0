package tax

import (
	"strings"

	"nexa/internal/core/apperror"
	"nexa/internal/core/types"
)

// Engine computes taxes for single positions and whole documents.
// Domain services depend on this interface; the production implementation
// is the Italian IVA engine below.
type Engine interface {
	// CalculateLine computes taxes for one taxable amount.
	CalculateLine(p LineParams) (LineResult, error)

	// CalculateDocument aggregates line taxes into document totals with
	// per-rate breakdowns and compliance notes.
	CalculateDocument(lines []LineParams, doc DocumentParams) (DocumentResult, error)
}

// LineParams describes one taxable position.
// Rates are canonical fractions (0.22 means 22%); use types.NormalizeRate
// at input boundaries.
type LineParams struct {
	Amount          types.Money
	IVARate         types.Money
	WithholdingRate types.Money
	ReverseCharge   bool
	Exempt          bool
}

// DocumentParams carries document-level context affecting tax treatment.
type DocumentParams struct {
	ClientCountry   string
	ClientVATNumber string
}

// LineResult is the tax outcome for one position.
type LineResult struct {
	BaseAmount        types.Money `json:"baseAmount"`
	IVARate           types.Money `json:"ivaRate"`
	IVAAmount         types.Money `json:"ivaAmount"`
	WithholdingRate   types.Money `json:"withholdingRate"`
	WithholdingAmount types.Money `json:"withholdingAmount"`

	// TotalAmount is base plus IVA (what the client owes on paper)
	TotalAmount types.Money `json:"totalAmount"`

	// NetAmount is total minus withholding (what is actually transferred)
	NetAmount types.Money `json:"netAmount"`

	// ReverseCharge reflects whether reverse charge was actually applied;
	// the engine downgrades it when the requirements are not met
	ReverseCharge bool `json:"reverseCharge"`
	Exempt        bool `json:"exempt"`

	IVALabel         string   `json:"ivaLabel"`
	WithholdingLabel string   `json:"withholdingLabel,omitempty"`
	TaxNote          string   `json:"taxNote,omitempty"`
	ComplianceNotes  []string `json:"complianceNotes,omitempty"`
}

// RateBreakdown accumulates base and tax per rate label.
type RateBreakdown struct {
	Rate       types.Money `json:"rate"`
	BaseAmount types.Money `json:"baseAmount"`
	TaxAmount  types.Money `json:"taxAmount"`
}

// DocumentResult is the aggregated tax outcome for a document.
type DocumentResult struct {
	BaseAmount        types.Money `json:"baseAmount"`
	IVAAmount         types.Money `json:"ivaAmount"`
	WithholdingAmount types.Money `json:"withholdingAmount"`
	TotalAmount       types.Money `json:"totalAmount"`
	NetAmount         types.Money `json:"netAmount"`

	Lines []LineResult `json:"lines"`

	IVABreakdown         map[string]*RateBreakdown `json:"ivaBreakdown"`
	WithholdingBreakdown map[string]*RateBreakdown `json:"withholdingBreakdown,omitempty"`

	HasReverseCharge bool     `json:"hasReverseCharge"`
	HasExemptLines   bool     `json:"hasExemptLines"`
	ComplianceNotes  []string `json:"complianceNotes,omitempty"`
}

// IVAEngine implements Engine for the Italian tax system.
type IVAEngine struct{}

var _ Engine = (*IVAEngine)(nil)

// NewIVAEngine returns the Italian IVA engine.
func NewIVAEngine() *IVAEngine {
	return &IVAEngine{}
}

// CalculateLine implements Engine. The document context is taken as the
// zero value (domestic client); use CalculateLineInContext for reverse
// charge evaluation.
func (e *IVAEngine) CalculateLine(p LineParams) (LineResult, error) {
	return e.CalculateLineInContext(p, DocumentParams{ClientCountry: "IT"})
}

// CalculateLineInContext computes taxes for one position within a document
// context. Reverse charge applies only for EU non-Italian clients holding
// a VAT number; otherwise the flag is dropped and a compliance note added.
func (e *IVAEngine) CalculateLineInContext(p LineParams, doc DocumentParams) (LineResult, error) {
	if p.Amount.IsNegative() {
		return LineResult{}, apperror.NewValidation("amount must not be negative").
			WithDetail("amount", p.Amount.String())
	}
	if p.IVARate.IsNegative() || p.WithholdingRate.IsNegative() {
		return LineResult{}, apperror.NewValidation("tax rates must not be negative")
	}

	r := LineResult{
		BaseAmount:      p.Amount,
		IVARate:         p.IVARate,
		WithholdingRate: p.WithholdingRate,
		ReverseCharge:   p.ReverseCharge,
		Exempt:          p.Exempt,
		IVAAmount:       types.Zero(),
		TotalAmount:     p.Amount,
	}

	switch {
	case p.ReverseCharge:
		if e.reverseChargeApplies(doc) {
			r.TaxNote = NoteReverseCharge
			r.ComplianceNotes = append(r.ComplianceNotes, complianceReverseChargeApplied)
		} else {
			// Requirements not met: fall through to a standard charge.
			r.ReverseCharge = false
			r.ComplianceNotes = append(r.ComplianceNotes, complianceReverseChargeNotApplicable)
			r.IVAAmount = types.RoundCurrency(p.Amount.Mul(p.IVARate))
			r.TotalAmount = p.Amount.Add(r.IVAAmount)
		}
	case p.Exempt:
		r.TaxNote = NoteExempt
		r.ComplianceNotes = append(r.ComplianceNotes, complianceExemptVerify)
	default:
		r.IVAAmount = types.RoundCurrency(p.Amount.Mul(p.IVARate))
		r.TotalAmount = p.Amount.Add(r.IVAAmount)
	}

	// Withholding is computed on the base amount, never on IVA.
	if p.WithholdingRate.IsPositive() {
		r.WithholdingAmount = types.RoundCurrency(p.Amount.Mul(p.WithholdingRate))
	} else {
		r.WithholdingAmount = types.Zero()
	}
	r.NetAmount = r.TotalAmount.Sub(r.WithholdingAmount)

	r.IVALabel = IVALabel(p.IVARate, r.ReverseCharge, p.Exempt)
	r.WithholdingLabel = WithholdingLabel(p.WithholdingRate)

	return r, nil
}

func (e *IVAEngine) reverseChargeApplies(doc DocumentParams) bool {
	country := strings.ToUpper(strings.TrimSpace(doc.ClientCountry))
	return IsEUCountry(country) &&
		country != "IT" &&
		strings.TrimSpace(doc.ClientVATNumber) != ""
}

// CalculateDocument implements Engine.
func (e *IVAEngine) CalculateDocument(lines []LineParams, doc DocumentParams) (DocumentResult, error) {
	out := DocumentResult{
		BaseAmount:        types.Zero(),
		IVAAmount:         types.Zero(),
		WithholdingAmount: types.Zero(),
		TotalAmount:       types.Zero(),
		NetAmount:         types.Zero(),
		IVABreakdown:      make(map[string]*RateBreakdown),
	}

	for _, p := range lines {
		lr, err := e.CalculateLineInContext(p, doc)
		if err != nil {
			return DocumentResult{}, err
		}

		out.Lines = append(out.Lines, lr)
		out.BaseAmount = out.BaseAmount.Add(lr.BaseAmount)
		out.IVAAmount = out.IVAAmount.Add(lr.IVAAmount)
		out.WithholdingAmount = out.WithholdingAmount.Add(lr.WithholdingAmount)
		out.TotalAmount = out.TotalAmount.Add(lr.TotalAmount)
		out.NetAmount = out.NetAmount.Add(lr.NetAmount)

		if lr.ReverseCharge {
			out.HasReverseCharge = true
		}
		if lr.Exempt {
			out.HasExemptLines = true
		}

		bd, ok := out.IVABreakdown[lr.IVALabel]
		if !ok {
			bd = &RateBreakdown{Rate: lr.IVARate, BaseAmount: types.Zero(), TaxAmount: types.Zero()}
			out.IVABreakdown[lr.IVALabel] = bd
		}
		bd.BaseAmount = bd.BaseAmount.Add(lr.BaseAmount)
		bd.TaxAmount = bd.TaxAmount.Add(lr.IVAAmount)

		if lr.WithholdingAmount.IsPositive() {
			if out.WithholdingBreakdown == nil {
				out.WithholdingBreakdown = make(map[string]*RateBreakdown)
			}
			wbd, ok := out.WithholdingBreakdown[lr.WithholdingLabel]
			if !ok {
				wbd = &RateBreakdown{Rate: lr.WithholdingRate, BaseAmount: types.Zero(), TaxAmount: types.Zero()}
				out.WithholdingBreakdown[lr.WithholdingLabel] = wbd
			}
			wbd.BaseAmount = wbd.BaseAmount.Add(lr.BaseAmount)
			wbd.TaxAmount = wbd.TaxAmount.Add(lr.WithholdingAmount)
		}
	}

	out.BaseAmount = types.RoundCurrency(out.BaseAmount)
	out.IVAAmount = types.RoundCurrency(out.IVAAmount)
	out.WithholdingAmount = types.RoundCurrency(out.WithholdingAmount)
	out.TotalAmount = types.RoundCurrency(out.TotalAmount)
	out.NetAmount = types.RoundCurrency(out.NetAmount)

	if out.HasReverseCharge {
		out.ComplianceNotes = append(out.ComplianceNotes, complianceInvoiceReverseCharge)
	}
	if out.HasExemptLines {
		out.ComplianceNotes = append(out.ComplianceNotes, complianceInvoiceExempt)
	}
	if out.WithholdingAmount.IsPositive() {
		out.ComplianceNotes = append(out.ComplianceNotes, complianceWithholdingPayment)
	}

	return out, nil
}
