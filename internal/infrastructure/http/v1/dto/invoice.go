package dto

import (
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/core/types"
	"nexa/internal/domain/documents/invoice"
)

// --- Requests ---

// LineRequest is one document position as submitted by the client.
type LineRequest struct {
	Description     string      `json:"description" binding:"required"`
	Quantity        types.Money `json:"quantity"`
	UnitPrice       types.Money `json:"unitPrice"`
	DiscountPercent types.Money `json:"discountPercent"`
	DiscountAmount  types.Money `json:"discountAmount"`
	IVARate         types.Money `json:"ivaRate"`
	WithholdingRate types.Money `json:"withholdingRate"`
	ReverseCharge   bool        `json:"reverseCharge"`
	Exempt          bool        `json:"exempt"`
}

func (r LineRequest) toInvoiceLine() invoice.Line {
	return invoice.Line{
		Description:     r.Description,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		IVARate:         r.IVARate,
		WithholdingRate: r.WithholdingRate,
		ReverseCharge:   r.ReverseCharge,
		Exempt:          r.Exempt,
	}
}

// CreateInvoiceRequest for creating invoices.
type CreateInvoiceRequest struct {
	ClientID        string `json:"clientId" binding:"required"`
	ClientName      string `json:"clientName"`
	ClientCountry   string `json:"clientCountry"`
	ClientVATNumber string `json:"clientVatNumber"`

	// Number is optional; empty means auto-generate
	Number string `json:"number"`

	IssueDate *time.Time `json:"issueDate"`
	DueDate   *time.Time `json:"dueDate"`

	Currency string `json:"currency"`
	Notes    string `json:"notes"`

	Lines []LineRequest `json:"lines"`
}

// ToEntity converts the request into a draft invoice.
func (r CreateInvoiceRequest) ToEntity(ownerID id.ID) (*invoice.Invoice, error) {
	clientID, err := id.Parse(r.ClientID)
	if err != nil {
		return nil, apperror.NewValidation("invalid client id").WithDetail("clientId", r.ClientID)
	}

	doc := invoice.New(ownerID, clientID)
	doc.ClientName = r.ClientName
	doc.ClientCountry = r.ClientCountry
	doc.ClientVATNumber = r.ClientVATNumber
	doc.Number = r.Number
	doc.Notes = r.Notes
	if r.Currency != "" {
		doc.Currency = r.Currency
	}
	if r.IssueDate != nil {
		doc.IssueDate = *r.IssueDate
	}
	if r.DueDate != nil {
		doc.DueDate = *r.DueDate
	}
	for _, line := range r.Lines {
		doc.AddLine(line.toInvoiceLine())
	}
	return doc, nil
}

// UpdateInvoiceRequest for updating draft invoices.
type UpdateInvoiceRequest struct {
	ClientName      *string `json:"clientName"`
	ClientCountry   *string `json:"clientCountry"`
	ClientVATNumber *string `json:"clientVatNumber"`

	IssueDate *time.Time `json:"issueDate"`
	DueDate   *time.Time `json:"dueDate"`

	Currency *string `json:"currency"`
	Notes    *string `json:"notes"`

	// Lines, when present, replace the document's positions
	Lines []LineRequest `json:"lines"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo merges the request into an existing invoice.
func (r UpdateInvoiceRequest) ApplyTo(doc *invoice.Invoice) {
	if r.ClientName != nil {
		doc.ClientName = *r.ClientName
	}
	if r.ClientCountry != nil {
		doc.ClientCountry = *r.ClientCountry
	}
	if r.ClientVATNumber != nil {
		doc.ClientVATNumber = *r.ClientVATNumber
	}
	if r.IssueDate != nil {
		doc.IssueDate = *r.IssueDate
	}
	if r.DueDate != nil {
		doc.DueDate = *r.DueDate
	}
	if r.Currency != nil {
		doc.Currency = *r.Currency
	}
	if r.Notes != nil {
		doc.Notes = *r.Notes
	}
	if r.Lines != nil {
		doc.Lines = doc.Lines[:0]
		for _, line := range r.Lines {
			doc.AddLine(line.toInvoiceLine())
		}
	}
	doc.Version = r.Version
}

// ChangeStatusRequest moves a document to a new lifecycle state.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RecordPaymentRequest registers a payment against an invoice.
type RecordPaymentRequest struct {
	Amount    types.Money `json:"amount" binding:"required"`
	PaidAt    *time.Time  `json:"paidAt"`
	Method    string      `json:"method"`
	Reference string      `json:"reference"`
}

// --- Responses ---

// LineResponse is one document position on the wire.
type LineResponse struct {
	LineID          string      `json:"lineId"`
	LineNo          int         `json:"lineNo"`
	Description     string      `json:"description"`
	Quantity        types.Money `json:"quantity"`
	UnitPrice       types.Money `json:"unitPrice"`
	DiscountPercent types.Money `json:"discountPercent"`
	DiscountAmount  types.Money `json:"discountAmount"`
	IVARate         types.Money `json:"ivaRate"`
	WithholdingRate types.Money `json:"withholdingRate"`
	ReverseCharge   bool        `json:"reverseCharge"`
	Exempt          bool        `json:"exempt"`
	Amount          types.Money `json:"amount"`
}

func fromInvoiceLine(l invoice.Line) LineResponse {
	return LineResponse{
		LineID:          l.LineID.String(),
		LineNo:          l.LineNo,
		Description:     l.Description,
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		DiscountAmount:  l.DiscountAmount,
		IVARate:         l.IVARate,
		WithholdingRate: l.WithholdingRate,
		ReverseCharge:   l.ReverseCharge,
		Exempt:          l.Exempt,
		Amount:          l.Amount,
	}
}

// InvoiceResponse contains invoice fields.
type InvoiceResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Number  string `json:"number"`
	Status  string `json:"status"`

	ClientID        string `json:"clientId"`
	ClientName      string `json:"clientName"`
	ClientCountry   string `json:"clientCountry"`
	ClientVATNumber string `json:"clientVatNumber,omitempty"`

	IssueDate time.Time `json:"issueDate"`
	DueDate   time.Time `json:"dueDate"`

	Currency string `json:"currency"`

	Subtotal          types.Money `json:"subtotal"`
	TaxAmount         types.Money `json:"taxAmount"`
	WithholdingAmount types.Money `json:"withholdingAmount"`
	TotalAmount       types.Money `json:"totalAmount"`
	PaidAmount        types.Money `json:"paidAmount"`
	Balance           types.Money `json:"balance"`

	CalculationMethod string `json:"calculationMethod"`
	CalculationNote   string `json:"calculationNote,omitempty"`

	Notes string `json:"notes,omitempty"`

	Lines []LineResponse `json:"lines,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromInvoice creates InvoiceResponse from an invoice.
func FromInvoice(doc *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                doc.ID.String(),
		Version:           doc.Version,
		Number:            doc.Number,
		Status:            doc.Status,
		ClientID:          doc.ClientID.String(),
		ClientName:        doc.ClientName,
		ClientCountry:     doc.ClientCountry,
		ClientVATNumber:   doc.ClientVATNumber,
		IssueDate:         doc.IssueDate,
		DueDate:           doc.DueDate,
		Currency:          doc.Currency,
		Subtotal:          doc.Subtotal,
		TaxAmount:         doc.TaxAmount,
		WithholdingAmount: doc.WithholdingAmount,
		TotalAmount:       doc.TotalAmount,
		PaidAmount:        doc.PaidAmount,
		Balance:           doc.Balance(),
		CalculationMethod: doc.CalculationMethod,
		CalculationNote:   doc.CalculationNote,
		Notes:             doc.Notes,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	for _, line := range doc.Lines {
		resp.Lines = append(resp.Lines, fromInvoiceLine(line))
	}
	return resp
}

// PaymentResponse contains one recorded payment.
type PaymentResponse struct {
	ID        string      `json:"id"`
	InvoiceID string      `json:"invoiceId"`
	Amount    types.Money `json:"amount"`
	PaidAt    time.Time   `json:"paidAt"`
	Method    string      `json:"method,omitempty"`
	Reference string      `json:"reference,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// FromPayment creates PaymentResponse from a payment.
func FromPayment(p *invoice.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		Amount:    p.Amount,
		PaidAt:    p.PaidAt,
		Method:    p.Method,
		Reference: p.Reference,
		CreatedAt: p.CreatedAt,
	}
}
