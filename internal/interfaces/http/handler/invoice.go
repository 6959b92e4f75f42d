package handler

import (
	"net/http"

	"github.com/dpnk/backend/internal/application/invoice"
	"github.com/dpnk/backend/internal/infrastructure/printing"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/dpnk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler serves company invoices
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoice.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *invoice.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// ListCompanyInvoices godoc
// @Summary      Invoices of my company
// @Tags         company-admin
// @Produce      json
// @Success      200 {object} APIResponse[[]invoice.InvoiceResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company-admin/invoices [get]
func (h *InvoiceHandler) ListCompanyInvoices(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.ListForAdmin(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// CreateInvoice godoc
// @Summary      Invoice the approved company-paid entries
// @Description  Takes every company-accepted payment of the company, numbers the invoice and renders its PDF
// @Tags         company-admin
// @Accept       json
// @Produce      json
// @Param        request body invoice.CreateInvoiceInput true "Invoice"
// @Success      201 {object} APIResponse[invoice.InvoiceResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company-admin/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req invoice.CreateInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	inv, err := h.invoiceService.CreateForAdmin(c.Request.Context(), campaignID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, inv)
}

// PDF godoc
// @Summary      Download an invoice
// @Description  Company admins download invoices of their company, staff any invoice
// @Tags         invoices
// @Produce      application/pdf
// @Param        id path string true "Invoice ID"
// @Success      200 {file} file
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.invoiceService.PDF(c.Request.Context(), campaignID, userID, middleware.IsStaff(c), invoiceID)
	if printing.IsTimeout(err) {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeGatewayUnavailable, "PDF rendering timed out, try again later")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Attachment(c, doc.Filename, "application/pdf", doc.Content)
}

// List godoc
// @Summary      All invoices of the campaign
// @Tags         admin
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]invoice.InvoiceResponse]
// @Security     BearerAuth
// @Router       /admin/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), campaignID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	successPage(&h.BaseHandler, c, page)
}

// MarkPaid godoc
// @Summary      Mark an invoice paid
// @Description  Moves the invoiced payments to "invoice paid"
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                true  "Invoice ID"
// @Param        request body invoice.MarkPaidInput false "Paid date, today when omitted"
// @Success      200 {object} APIResponse[invoice.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/invoices/{id}/paid [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req invoice.MarkPaidInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleValidation(c, err)
			return
		}
	}

	inv, err := h.invoiceService.MarkPaid(c.Request.Context(), campaignID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}
