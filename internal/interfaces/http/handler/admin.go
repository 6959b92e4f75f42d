package handler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/dpnk/backend/internal/application/mailing"
	"github.com/dpnk/backend/internal/application/reporting"
	"github.com/dpnk/backend/internal/application/results"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/infrastructure/export"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/dpnk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// maxImportSize bounds an uploaded company import file
const maxImportSize = 5 << 20

// ResultsFlusher drains the results dirty queue on demand
type ResultsFlusher interface {
	Run(ctx context.Context) (*results.FlushReport, error)
}

// MailingSyncer pushes the participants of a campaign to the mailing list
type MailingSyncer interface {
	SyncCampaign(ctx context.Context, c *campaign.Campaign) (*mailing.SyncReport, error)
}

// AdminHandler serves staff exports, imports, statistics and maintenance jobs
type AdminHandler struct {
	BaseHandler
	reportService *reporting.ReportService
	flusher       ResultsFlusher
	mailing       MailingSyncer
}

// NewAdminHandler creates a new admin handler. mailing may be nil when the
// mailing list integration is disabled.
func NewAdminHandler(reportService *reporting.ReportService, flusher ResultsFlusher, mailing MailingSyncer) *AdminHandler {
	return &AdminHandler{
		reportService: reportService,
		flusher:       flusher,
		mailing:       mailing,
	}
}

// format reads the format query parameter or writes 400
func (h *AdminHandler) format(c *gin.Context, fallback string) (export.Format, bool) {
	raw := c.DefaultQuery("format", fallback)
	f, err := export.ParseFormat(raw)
	if err != nil {
		h.BadRequest(c, "Unsupported format, use csv or xlsx")
		return "", false
	}
	return f, true
}

// ExportAttendances godoc
// @Summary      Export participants
// @Tags         admin
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format query string false "csv or xlsx" default(csv)
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/export/attendances [get]
func (h *AdminHandler) ExportAttendances(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	f, ok := h.format(c, "")
	if !ok {
		return
	}

	file, err := h.reportService.ExportAttendances(c.Request.Context(), campaignID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// ExportResults godoc
// @Summary      Export competition results
// @Tags         admin
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        slug   path  string true  "Competition slug"
// @Param        format query string false "csv or xlsx" default(csv)
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/export/competitions/{slug} [get]
func (h *AdminHandler) ExportResults(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	f, ok := h.format(c, "")
	if !ok {
		return
	}

	file, err := h.reportService.ExportResults(c.Request.Context(), campaignID, c.Param("slug"), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// ImportCompanies godoc
// @Summary      Import companies
// @Description  Creates or updates companies from a CSV or XLSX file with columns name, ico, dic, street, street_number, city, psc
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV or XLSX file"
// @Success      200 {object} APIResponse[reporting.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/import/companies [post]
func (h *AdminHandler) ImportCompanies(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Import file is required")
		return
	}
	if header.Size > maxImportSize {
		h.BadRequest(c, "Import file is too large")
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	f, ok := h.format(c, ext)
	if !ok {
		return
	}

	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}
	defer file.Close()

	result, err := h.reportService.ImportCompanies(c.Request.Context(), file, f)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		h.BadRequest(c, "Unsupported format, use csv or xlsx")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Statistics godoc
// @Summary      Campaign statistics
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[reporting.Statistics]
// @Security     BearerAuth
// @Router       /admin/statistics [get]
func (h *AdminHandler) Statistics(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	stats, err := h.reportService.CampaignStatistics(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// FlushResults godoc
// @Summary      Recompute queued results now
// @Description  Drains the results dirty queue without waiting for the scheduled job
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[results.FlushReport]
// @Security     BearerAuth
// @Router       /admin/results/flush [post]
func (h *AdminHandler) FlushResults(c *gin.Context) {
	report, err := h.flusher.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// SyncMailing godoc
// @Summary      Synchronize the mailing list
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[mailing.SyncReport]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/mailing/sync [post]
func (h *AdminHandler) SyncMailing(c *gin.Context) {
	camp := middleware.GetCampaign(c)
	if camp == nil {
		h.currentCampaign(c)
		return
	}
	if h.mailing == nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "Mailing list integration is disabled")
		return
	}

	report, err := h.mailing.SyncCampaign(c.Request.Context(), camp)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
