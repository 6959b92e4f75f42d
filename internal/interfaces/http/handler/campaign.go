package handler

import (
	appcampaign "github.com/dpnk/backend/internal/application/campaign"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TShirtSizeResponse is an orderable t-shirt size
type TShirtSizeResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code" example:"M"`
	Name      string    `json:"name" example:"Triko M"`
	Available bool      `json:"available"`
}

// CityResponse is a city taking part in the campaign
type CityResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name" example:"Praha"`
	Slug string    `json:"slug" example:"praha"`
}

// CampaignHandler serves the public campaign information
type CampaignHandler struct {
	BaseHandler
	campaignService *appcampaign.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *appcampaign.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// GetCampaign godoc
// @Summary      Current campaign
// @Description  Fees, limits, phases and competition days of the campaign named by the request
// @Tags         campaign
// @Produce      json
// @Param        X-Campaign header string false "Campaign slug"
// @Success      200 {object} APIResponse[appcampaign.CampaignOverview]
// @Failure      404 {object} ErrorResponse
// @Router       /campaign [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	overview, err := h.campaignService.Overview(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, overview)
}

// GetPhases godoc
// @Summary      Campaign phases
// @Tags         campaign
// @Produce      json
// @Success      200 {object} APIResponse[[]appcampaign.PhaseInfo]
// @Router       /campaign/phases [get]
func (h *CampaignHandler) GetPhases(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	phases, err := h.campaignService.Phases(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, phases)
}

// GetTShirtSizes godoc
// @Summary      T-shirt sizes
// @Tags         campaign
// @Produce      json
// @Success      200 {object} APIResponse[[]TShirtSizeResponse]
// @Router       /campaign/tshirt-sizes [get]
func (h *CampaignHandler) GetTShirtSizes(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	sizes, err := h.campaignService.TShirtSizes(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]TShirtSizeResponse, len(sizes))
	for i, s := range sizes {
		out[i] = TShirtSizeResponse{ID: s.ID, Code: s.Code, Name: s.Name, Available: s.Available}
	}
	h.Success(c, out)
}

// GetCities godoc
// @Summary      Cities of the campaign
// @Tags         campaign
// @Produce      json
// @Success      200 {object} APIResponse[[]CityResponse]
// @Router       /campaign/cities [get]
func (h *CampaignHandler) GetCities(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	cities, err := h.campaignService.Cities(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]CityResponse, len(cities))
	for i, city := range cities {
		out[i] = CityResponse{ID: city.ID, Name: city.Name, Slug: city.Slug}
	}
	h.Success(c, out)
}
