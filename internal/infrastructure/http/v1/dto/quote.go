package dto

import (
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/internal/core/types"
	"nexa/internal/domain/documents/quote"
)

// --- Requests ---

// QuoteLineRequest is one quoted position as submitted by the client.
type QuoteLineRequest struct {
	LineRequest

	Optional bool `json:"optional"`
}

func (r QuoteLineRequest) toQuoteLine() quote.Line {
	return quote.Line{
		Description:     r.Description,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		IVARate:         r.IVARate,
		WithholdingRate: r.WithholdingRate,
		ReverseCharge:   r.ReverseCharge,
		Exempt:          r.Exempt,
		Optional:        r.Optional,
	}
}

// CreateQuoteRequest for creating quotes.
type CreateQuoteRequest struct {
	ClientID        string `json:"clientId" binding:"required"`
	ClientName      string `json:"clientName"`
	ClientCountry   string `json:"clientCountry"`
	ClientVATNumber string `json:"clientVatNumber"`

	Title string `json:"title"`

	// Number is optional; empty means auto-generate
	Number string `json:"number"`

	IssueDate    *time.Time `json:"issueDate"`
	ValidityDays int        `json:"validityDays"`

	Currency string `json:"currency"`
	Notes    string `json:"notes"`

	Lines []QuoteLineRequest `json:"lines"`
}

// ToEntity converts the request into a draft quote.
func (r CreateQuoteRequest) ToEntity(ownerID id.ID) (*quote.Quote, error) {
	clientID, err := id.Parse(r.ClientID)
	if err != nil {
		return nil, apperror.NewValidation("invalid client id").WithDetail("clientId", r.ClientID)
	}

	doc := quote.New(ownerID, clientID)
	doc.ClientName = r.ClientName
	doc.ClientCountry = r.ClientCountry
	doc.ClientVATNumber = r.ClientVATNumber
	doc.Title = r.Title
	doc.Number = r.Number
	doc.Notes = r.Notes
	if r.Currency != "" {
		doc.Currency = r.Currency
	}
	if r.IssueDate != nil {
		doc.IssueDate = *r.IssueDate
	}
	if r.ValidityDays > 0 {
		doc.ValidityDays = r.ValidityDays
	}
	doc.RefreshExpiry()
	for _, line := range r.Lines {
		doc.AddLine(line.toQuoteLine())
	}
	return doc, nil
}

// UpdateQuoteRequest for updating editable quotes.
type UpdateQuoteRequest struct {
	ClientName      *string `json:"clientName"`
	ClientCountry   *string `json:"clientCountry"`
	ClientVATNumber *string `json:"clientVatNumber"`

	Title *string `json:"title"`

	IssueDate    *time.Time `json:"issueDate"`
	ValidityDays *int       `json:"validityDays"`

	Currency *string `json:"currency"`
	Notes    *string `json:"notes"`

	// Lines, when present, replace the document's positions
	Lines []QuoteLineRequest `json:"lines"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo merges the request into an existing quote.
func (r UpdateQuoteRequest) ApplyTo(doc *quote.Quote) {
	if r.ClientName != nil {
		doc.ClientName = *r.ClientName
	}
	if r.ClientCountry != nil {
		doc.ClientCountry = *r.ClientCountry
	}
	if r.ClientVATNumber != nil {
		doc.ClientVATNumber = *r.ClientVATNumber
	}
	if r.Title != nil {
		doc.Title = *r.Title
	}
	if r.IssueDate != nil {
		doc.IssueDate = *r.IssueDate
	}
	if r.ValidityDays != nil {
		doc.ValidityDays = *r.ValidityDays
	}
	if r.IssueDate != nil || r.ValidityDays != nil {
		doc.RefreshExpiry()
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
			doc.AddLine(line.toQuoteLine())
		}
	}
	doc.Version = r.Version
}

// --- Responses ---

// QuoteLineResponse is one quoted position on the wire.
type QuoteLineResponse struct {
	LineResponse

	Optional bool `json:"optional"`
}

func fromQuoteLine(l quote.Line) QuoteLineResponse {
	return QuoteLineResponse{
		LineResponse: LineResponse{
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
		},
		Optional: l.Optional,
	}
}

// QuoteResponse contains quote fields.
type QuoteResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Number  string `json:"number"`
	Status  string `json:"status"`

	ClientID        string `json:"clientId"`
	ClientName      string `json:"clientName"`
	ClientCountry   string `json:"clientCountry"`
	ClientVATNumber string `json:"clientVatNumber,omitempty"`

	Title string `json:"title,omitempty"`

	IssueDate    time.Time `json:"issueDate"`
	ValidityDays int       `json:"validityDays"`
	ExpiryDate   time.Time `json:"expiryDate"`

	Currency string `json:"currency"`

	Subtotal          types.Money `json:"subtotal"`
	TaxAmount         types.Money `json:"taxAmount"`
	WithholdingAmount types.Money `json:"withholdingAmount"`
	TotalAmount       types.Money `json:"totalAmount"`

	CalculationMethod string `json:"calculationMethod"`
	CalculationNote   string `json:"calculationNote,omitempty"`

	AcceptedAt         *time.Time `json:"acceptedAt,omitempty"`
	ConvertedInvoiceID *string    `json:"convertedInvoiceId,omitempty"`

	Notes string `json:"notes,omitempty"`

	Lines []QuoteLineResponse `json:"lines,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromQuote creates QuoteResponse from a quote.
func FromQuote(doc *quote.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:                doc.ID.String(),
		Version:           doc.Version,
		Number:            doc.Number,
		Status:            doc.Status,
		ClientID:          doc.ClientID.String(),
		ClientName:        doc.ClientName,
		ClientCountry:     doc.ClientCountry,
		ClientVATNumber:   doc.ClientVATNumber,
		Title:             doc.Title,
		IssueDate:         doc.IssueDate,
		ValidityDays:      doc.ValidityDays,
		ExpiryDate:        doc.ExpiryDate,
		Currency:          doc.Currency,
		Subtotal:          doc.Subtotal,
		TaxAmount:         doc.TaxAmount,
		WithholdingAmount: doc.WithholdingAmount,
		TotalAmount:       doc.TotalAmount,
		CalculationMethod: doc.CalculationMethod,
		CalculationNote:   doc.CalculationNote,
		AcceptedAt:        doc.AcceptedAt,
		Notes:             doc.Notes,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	if doc.ConvertedInvoiceID != nil {
		s := doc.ConvertedInvoiceID.String()
		resp.ConvertedInvoiceID = &s
	}
	for _, line := range doc.Lines {
		resp.Lines = append(resp.Lines, fromQuoteLine(line))
	}
	return resp
}
