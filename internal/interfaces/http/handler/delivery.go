package handler

import (
	"context"

	"github.com/dpnk/backend/internal/application/delivery"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeliveryHandler serves t-shirt delivery batches
type DeliveryHandler struct {
	BaseHandler
	deliveryService *delivery.DeliveryService
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(deliveryService *delivery.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// CreateBatch godoc
// @Summary      Create a delivery batch
// @Description  Packs every paid participant with a shipped t-shirt size and no package yet, renders the customer sheets and the TNT order file
// @Tags         admin
// @Produce      json
// @Success      201 {object} APIResponse[delivery.BatchResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/delivery-batches [post]
func (h *DeliveryHandler) CreateBatch(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	batch, err := h.deliveryService.CreateBatch(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// ListBatches godoc
// @Summary      List delivery batches
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[[]delivery.BatchResponse]
// @Security     BearerAuth
// @Router       /admin/delivery-batches [get]
func (h *DeliveryHandler) ListBatches(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	batches, err := h.deliveryService.ListBatches(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// GetBatch godoc
// @Summary      Delivery batch with its packages
// @Tags         admin
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} APIResponse[delivery.BatchDetail]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/delivery-batches/{id} [get]
func (h *DeliveryHandler) GetBatch(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.deliveryService.GetBatch(c.Request.Context(), campaignID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// CustomerSheets godoc
// @Summary      Download the customer sheets
// @Tags         admin
// @Produce      application/pdf
// @Param        id path string true "Batch ID"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/delivery-batches/{id}/customer-sheets [get]
func (h *DeliveryHandler) CustomerSheets(c *gin.Context) {
	h.download(c, h.deliveryService.CustomerSheets)
}

// OrderFile godoc
// @Summary      Download the TNT order file
// @Tags         admin
// @Produce      plain
// @Param        id path string true "Batch ID"
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/delivery-batches/{id}/order-file [get]
func (h *DeliveryHandler) OrderFile(c *gin.Context) {
	h.download(c, h.deliveryService.OrderFile)
}

func (h *DeliveryHandler) download(c *gin.Context, fetch func(ctx context.Context, campaignID, batchID uuid.UUID) (*delivery.File, error)) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	file, err := fetch(c.Request.Context(), campaignID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// Dispatch godoc
// @Summary      Mark a batch dispatched
// @Tags         admin
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} APIResponse[delivery.BatchResponse]
// @Security     BearerAuth
// @Router       /admin/delivery-batches/{id}/dispatch [post]
func (h *DeliveryHandler) Dispatch(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.deliveryService.Dispatch(c.Request.Context(), campaignID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// MarkDelivered godoc
// @Summary      Record a delivered package
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body delivery.MarkDeliveredInput true "Tracking number"
// @Success      200 {object} APIResponse[delivery.PackageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/packages/delivered [post]
func (h *DeliveryHandler) MarkDelivered(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	var req delivery.MarkDeliveredInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	pkg, err := h.deliveryService.MarkDelivered(c.Request.Context(), campaignID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pkg)
}
