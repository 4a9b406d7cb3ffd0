// Package invoice provides the Invoice document (fattura).
package invoice

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

// Invoice represents an issued invoice with its line items.
type Invoice struct {
	entity.Document

	// Client reference
	ClientID        id.ID  `db:"client_id" json:"clientId"`
	ClientName      string `db:"client_name" json:"clientName"`
	ClientCountry   string `db:"client_country" json:"clientCountry"`
	ClientVATNumber string `db:"client_vat_number" json:"clientVatNumber,omitempty"`

	// Dates
	IssueDate time.Time `db:"issue_date" json:"issueDate"`
	DueDate   time.Time `db:"due_date" json:"dueDate"`

	Currency string `db:"currency" json:"currency"`

	// Totals (calculated from lines)
	Subtotal          types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount         types.Money `db:"tax_amount" json:"taxAmount"`
	WithholdingAmount types.Money `db:"withholding_amount" json:"withholdingAmount"`
	TotalAmount       types.Money `db:"total_amount" json:"totalAmount"`
	PaidAmount        types.Money `db:"paid_amount" json:"paidAmount"`

	// CalculationMethod records how totals were produced ("engine" or
	// "simplified"); CalculationNote is set only for simplified totals
	CalculationMethod string `db:"calculation_method" json:"calculationMethod"`
	CalculationNote   string `db:"calculation_note" json:"calculationNote,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// Table part: invoice positions
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one invoice position.
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

	// Amount is the line subtotal after discounts, before tax
	Amount types.Money `db:"amount" json:"amount"`
}

// New creates a draft invoice for a client.
func New(ownerID, clientID id.ID) *Invoice {
	inv := &Invoice{
		Document:   entity.NewDocument(ownerID),
		ClientID:   clientID,
		Currency:   "EUR",
		PaidAmount: types.Zero(),
		Lines:      make([]Line, 0),
	}
	inv.Status = documents.InvoiceStatusDraft
	inv.IssueDate = time.Now().UTC().Truncate(24 * time.Hour)
	inv.DueDate = inv.IssueDate.AddDate(0, 1, 0)
	return inv
}

// AddLine appends a position. Totals are not recalculated here: the
// service runs the tax calculator before every save.
func (i *Invoice) AddLine(line Line) {
	if id.IsNil(line.LineID) {
		line.LineID = id.New()
	}
	line.LineNo = len(i.Lines) + 1
	i.Lines = append(i.Lines, line)
}

// CalcLines converts positions into calculator input.
func (i *Invoice) CalcLines() []tax.CalcLine {
	out := make([]tax.CalcLine, 0, len(i.Lines))
	for _, l := range i.Lines {
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

// ApplyTotals writes calculator output onto the invoice and refreshes
// per-line amounts.
func (i *Invoice) ApplyTotals(t tax.Totals) {
	i.Subtotal = t.Subtotal
	i.TaxAmount = t.TaxAmount
	i.WithholdingAmount = t.WithholdingAmount
	i.TotalAmount = t.Total
	i.CalculationMethod = t.Method
	i.CalculationNote = t.Note

	for n := range i.Lines {
		i.Lines[n].Amount = types.RoundCurrency(i.Lines[n].toCalc().Subtotal())
	}
}

func (l Line) toCalc() tax.CalcLine {
	return tax.CalcLine{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		DiscountAmount:  l.DiscountAmount,
	}
}

// Balance returns the outstanding amount.
func (i *Invoice) Balance() types.Money {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// IsPayable reports whether payments may be recorded in the current status.
func (i *Invoice) IsPayable() bool {
	switch i.Status {
	case documents.InvoiceStatusIssued,
		documents.InvoiceStatusSent,
		documents.InvoiceStatusOverdue,
		documents.InvoiceStatusPartiallyPaid:
		return true
	}
	return false
}

// Validate implements entity.Validatable.
func (i *Invoice) Validate(ctx context.Context) error {
	if id.IsNil(i.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}

	if id.IsNil(i.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}

	if i.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}

	if i.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").
			WithDetail("field", "dueDate")
	}

	if i.DueDate.Before(i.IssueDate) {
		return apperror.NewValidation("due date must not precede issue date").
			WithDetail("field", "dueDate")
	}

	for n, line := range i.Lines {
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

// Payment is one recorded payment against an invoice.
type Payment struct {
	ID        id.ID       `db:"id" json:"id"`
	OwnerID   id.ID       `db:"owner_id" json:"ownerId"`
	InvoiceID id.ID       `db:"invoice_id" json:"invoiceId"`
	Amount    types.Money `db:"amount" json:"amount"`
	PaidAt    time.Time   `db:"paid_at" json:"paidAt"`
	Method    string      `db:"method" json:"method,omitempty"`
	Reference string      `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}
