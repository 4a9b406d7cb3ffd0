package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexa/internal/domain"
	"nexa/internal/domain/documents/quote"
	"nexa/internal/infrastructure/http/v1/dto"
	"nexa/internal/infrastructure/pdf"
)

// QuoteHandler handles HTTP requests for quotes.
type QuoteHandler struct {
	*BaseHandler
	service  *quote.Service
	renderer *pdf.Renderer
}

// NewQuoteHandler creates a new quote handler. The renderer may be nil when
// PDF export is disabled.
func NewQuoteHandler(base *BaseHandler, service *quote.Service, renderer *pdf.Renderer) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: base,
		service:     service,
		renderer:    renderer,
	}
}

// Create handles POST /quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	var req dto.CreateQuoteRequest
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

	c.JSON(http.StatusCreated, dto.FromQuote(doc))
}

// Get handles GET /quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
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

	h.OK(c, dto.FromQuote(doc))
}

// List handles GET /quotes.
func (h *QuoteHandler) List(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	filter := quote.ListFilter{
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

	h.OK(c, dto.NewListResponse(result, dto.FromQuote))
}

// Update handles PUT /quotes/:id.
func (h *QuoteHandler) Update(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
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

	h.OK(c, dto.FromQuote(doc))
}

// Delete handles DELETE /quotes/:id.
func (h *QuoteHandler) Delete(c *gin.Context) {
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

// ChangeStatus handles POST /quotes/:id/status.
func (h *QuoteHandler) ChangeStatus(c *gin.Context) {
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

	h.OK(c, dto.FromQuote(doc))
}

// Convert handles POST /quotes/:id/convert. Only accepted quotes convert;
// the created invoice is returned.
func (h *QuoteHandler) Convert(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	inv, err := h.service.ConvertToInvoice(c.Request.Context(), ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromInvoice(inv))
}

// Duplicate handles POST /quotes/:id/duplicate.
func (h *QuoteHandler) Duplicate(c *gin.Context) {
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

	c.JSON(http.StatusCreated, dto.FromQuote(doc))
}

// PDF handles GET /quotes/:id/pdf.
func (h *QuoteHandler) PDF(c *gin.Context) {
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

	html, err := pdf.QuoteHTML(doc)
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

// ProcessExpired handles POST /quotes/process-expired.
func (h *QuoteHandler) ProcessExpired(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	changed, err := h.service.ProcessExpired(c.Request.Context(), ownerID, time.Now().UTC())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"changed": changed})
}
