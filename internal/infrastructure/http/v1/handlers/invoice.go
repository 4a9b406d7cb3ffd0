package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexa/internal/domain"
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/infrastructure/http/v1/dto"
	"nexa/internal/infrastructure/pdf"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	*BaseHandler
	service  *invoice.Service
	renderer *pdf.Renderer
}

// NewInvoiceHandler creates a new invoice handler. The renderer may be nil
// when PDF export is disabled.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service, renderer *pdf.Renderer) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
		renderer:    renderer,
	}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity(ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromInvoice(doc))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(doc))
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	filter := invoice.ListFilter{
		ListFilter: domain.DefaultListFilter(),
		OwnerID:    ownerID,
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", filter.OrderBy)
	filter.Statuses = c.QueryArray("status")
	filter.DateFrom = h.ParseDateQuery(c, "dateFrom")
	filter.DateTo = h.ParseDateQuery(c, "dateTo")

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromInvoice))
}

// Update handles PUT /invoices/:id.
func (h *InvoiceHandler) Update(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(doc))
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), ownerID, docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ChangeStatus handles POST /invoices/:id/status.
func (h *InvoiceHandler) ChangeStatus(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.ChangeStatus(c.Request.Context(), ownerID, docID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(doc))
}

// RecordPayment handles POST /invoices/:id/payments.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	doc, err := h.service.RecordPayment(c.Request.Context(), ownerID, docID, req.Amount, paidAt, req.Method, req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(doc))
}

// Payments handles GET /invoices/:id/payments.
func (h *InvoiceHandler) Payments(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	payments, err := h.service.Payments(c.Request.Context(), ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.FromPayment(p))
	}
	h.OK(c, out)
}

// Duplicate handles POST /invoices/:id/duplicate.
func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Duplicate(c.Request.Context(), ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromInvoice(doc))
}

// PDF handles GET /invoices/:id/pdf.
func (h *InvoiceHandler) PDF(c *gin.Context) {
	if h.renderer == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"message": "pdf export disabled"})
		return
	}

	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	html, err := pdf.InvoiceHTML(doc)
	if err != nil {
		h.Error(c, err)
		return
	}

	data, err := h.renderer.Render(c.Request.Context(), html)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, doc.Number))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ProcessOverdue handles POST /invoices/process-overdue.
func (h *InvoiceHandler) ProcessOverdue(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	changed, err := h.service.ProcessOverdue(c.Request.Context(), ownerID, time.Now().UTC())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"changed": changed})
}
