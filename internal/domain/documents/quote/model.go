// Package quote provides the Quote document (preventivo).
package quote

import (
	"context"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/entity"
	"nexa/internal/core/id"
	"nexa/internal/core/types"
	"nexa/internal/domain/documents"
	"nexa/internal/domain/tax"
)

// Quote represents a quote offered to a client. An accepted quote can be
// converted into an invoice exactly once.
type Quote struct {
	entity.Document

	// Client reference
	ClientID        id.ID  `db:"client_id" json:"clientId"`
	ClientName      string `db:"client_name" json:"clientName"`
	ClientCountry   string `db:"client_country" json:"clientCountry"`
	ClientVATNumber string `db:"client_vat_number" json:"clientVatNumber,omitempty"`

	Title string `db:"title" json:"title,omitempty"`

	// Dates
	IssueDate time.Time `db:"issue_date" json:"issueDate"`

	// ValidityDays determines ExpiryDate from IssueDate
	ValidityDays int       `db:"validity_days" json:"validityDays"`
	ExpiryDate   time.Time `db:"expiry_date" json:"expiryDate"`

	Currency string `db:"currency" json:"currency"`

	// Totals (calculated from lines)
	Subtotal          types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount         types.Money `db:"tax_amount" json:"taxAmount"`
	WithholdingAmount types.Money `db:"withholding_amount" json:"withholdingAmount"`
	TotalAmount       types.Money `db:"total_amount" json:"totalAmount"`

	CalculationMethod string `db:"calculation_method" json:"calculationMethod"`
	CalculationNote   string `db:"calculation_note" json:"calculationNote,omitempty"`

	// Acceptance tracking
	AcceptedAt *time.Time `db:"accepted_at" json:"acceptedAt,omitempty"`

	// ConvertedInvoiceID is set when the quote becomes an invoice
	ConvertedInvoiceID *id.ID `db:"converted_invoice_id" json:"convertedInvoiceId,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// Table part: quoted positions
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one quoted position.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	Description string `db:"description" json:"description"`

	Quantity        types.Money `db:"quantity" json:"quantity"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`
	DiscountAmount  types.Money `db:"discount_amount" json:"discountAmount"`

	IVARate         types.Money `db:"iva_rate" json:"ivaRate"`
	WithholdingRate types.Money `db:"withholding_rate" json:"withholdingRate"`
	ReverseCharge   bool        `db:"reverse_charge" json:"reverseCharge"`
	Exempt          bool        `db:"exempt" json:"exempt"`

	// Optional positions are excluded from totals until the client
	// accepts them
	Optional bool `db:"optional" json:"optional"`

	Amount types.Money `db:"amount" json:"amount"`
}

// DefaultValidityDays is the validity period applied when none is given.
const DefaultValidityDays = 30

// New creates a draft quote for a client.
func New(ownerID, clientID id.ID) *Quote {
	q := &Quote{
		Document:     entity.NewDocument(ownerID),
		ClientID:     clientID,
		Currency:     "EUR",
		ValidityDays: DefaultValidityDays,
		Lines:        make([]Line, 0),
	}
	q.Status = documents.QuoteStatusDraft
	q.IssueDate = time.Now().UTC().Truncate(24 * time.Hour)
	q.RefreshExpiry()
	return q
}

// RefreshExpiry recomputes ExpiryDate from IssueDate and ValidityDays.
func (q *Quote) RefreshExpiry() {
	days := q.ValidityDays
	if days <= 0 {
		days = DefaultValidityDays
	}
	q.ExpiryDate = q.IssueDate.AddDate(0, 0, days)
}

// AddLine appends a position.
func (q *Quote) AddLine(line Line) {
	if id.IsNil(line.LineID) {
		line.LineID = id.New()
	}
	line.LineNo = len(q.Lines) + 1
	q.Lines = append(q.Lines, line)
}

// CalcLines converts non-optional positions into calculator input.
func (q *Quote) CalcLines() []tax.CalcLine {
	out := make([]tax.CalcLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		if l.Optional {
			continue
		}
		out = append(out, tax.CalcLine{
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			IVARate:         l.IVARate,
			WithholdingRate: l.WithholdingRate,
			ReverseCharge:   l.ReverseCharge,
			Exempt:          l.Exempt,
		})
	}
	return out
}

// ApplyTotals writes calculator output onto the quote and refreshes
// per-line amounts.
func (q *Quote) ApplyTotals(t tax.Totals) {
	q.Subtotal = t.Subtotal
	q.TaxAmount = t.TaxAmount
	q.WithholdingAmount = t.WithholdingAmount
	q.TotalAmount = t.Total
	q.CalculationMethod = t.Method
	q.CalculationNote = t.Note

	for n := range q.Lines {
		line := q.Lines[n]
		q.Lines[n].Amount = types.RoundCurrency(tax.CalcLine{
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount,
		}.Subtotal())
	}
}

// IsExpired reports whether the quote validity has lapsed at the given time.
func (q *Quote) IsExpired(now time.Time) bool {
	return !q.ExpiryDate.IsZero() && now.After(q.ExpiryDate)
}

// Validate implements entity.Validatable.
func (q *Quote) Validate(ctx context.Context) error {
	if id.IsNil(q.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}

	if id.IsNil(q.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}

	if q.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}

	if !q.ExpiryDate.IsZero() && q.ExpiryDate.Before(q.IssueDate) {
		return apperror.NewValidation("expiry date must not precede issue date").
			WithDetail("field", "expiryDate")
	}

	for n, line := range q.Lines {
		if line.Quantity.IsNegative() {
			return apperror.NewValidation("quantity must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", n+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", n+1)
		}
	}

	return nil
}
