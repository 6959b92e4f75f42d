package handler

import (
	"github.com/dpnk/backend/internal/application/organization"
	domainorg "github.com/dpnk/backend/internal/domain/organization"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyAdminRequest names the company the user asks to administer
type CompanyAdminRequest struct {
	CompanyID uuid.UUID `json:"company_id" binding:"required"`
}

// CompanyAdminDecisionRequest approves or denies a company admin request
type CompanyAdminDecisionRequest struct {
	Approved string `json:"approved" binding:"required,oneof=approved denied undecided"`
}

// OrganizationHandler serves companies, subsidiaries and company admins
type OrganizationHandler struct {
	BaseHandler
	companyService *organization.CompanyService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(companyService *organization.CompanyService) *OrganizationHandler {
	return &OrganizationHandler{companyService: companyService}
}

// ListCompanies godoc
// @Summary      List companies
// @Tags         organization
// @Produce      json
// @Param        search    query string false "Name or IČO fragment"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]organization.CompanyResponse]
// @Security     BearerAuth
// @Router       /companies [get]
func (h *OrganizationHandler) ListCompanies(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.companyService.ListCompanies(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	successPage(&h.BaseHandler, c, page)
}

// CreateCompany godoc
// @Summary      Create a company
// @Description  Name and IČO must be unique; IČO is validated by its checksum
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body organization.CreateCompanyInput true "Company"
// @Success      201 {object} APIResponse[organization.CompanyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /companies [post]
func (h *OrganizationHandler) CreateCompany(c *gin.Context) {
	var req organization.CreateCompanyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, company)
}

// ListSubsidiaries godoc
// @Summary      Active subsidiaries of a company
// @Tags         organization
// @Produce      json
// @Param        id path string true "Company ID"
// @Success      200 {object} APIResponse[[]organization.SubsidiaryResponse]
// @Security     BearerAuth
// @Router       /companies/{id}/subsidiaries [get]
func (h *OrganizationHandler) ListSubsidiaries(c *gin.Context) {
	companyID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	subs, err := h.companyService.ListSubsidiaries(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, subs)
}

// CreateSubsidiary godoc
// @Summary      Create a subsidiary
// @Description  The city has to take part in the current campaign
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body organization.CreateSubsidiaryInput true "Subsidiary"
// @Success      201 {object} APIResponse[organization.SubsidiaryResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /subsidiaries [post]
func (h *OrganizationHandler) CreateSubsidiary(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	var req organization.CreateSubsidiaryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	sub, err := h.companyService.CreateSubsidiary(c.Request.Context(), campaignID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sub)
}

// RequestCompanyAdmin godoc
// @Summary      Ask to administer a company
// @Tags         company-admin
// @Accept       json
// @Produce      json
// @Param        request body CompanyAdminRequest true "Company"
// @Success      200 {object} APIResponse[organization.CompanyAdminResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company-admin/request [post]
func (h *OrganizationHandler) RequestCompanyAdmin(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req CompanyAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	admin, err := h.companyService.RequestCompanyAdmin(c.Request.Context(), campaignID, userID, req.CompanyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, admin)
}

// DecideCompanyAdmin godoc
// @Summary      Decide a company admin request
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        user_id path string true "User ID of the applicant"
// @Param        request body CompanyAdminDecisionRequest true "Decision"
// @Success      200 {object} APIResponse[organization.CompanyAdminResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/company-admins/{user_id}/decision [post]
func (h *OrganizationHandler) DecideCompanyAdmin(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "user_id")
	if !ok {
		return
	}

	var req CompanyAdminDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	admin, err := h.companyService.DecideCompanyAdmin(c.Request.Context(), campaignID, userID, domainorg.ApprovalState(req.Approved))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, admin)
}
