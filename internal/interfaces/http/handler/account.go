package handler

import (
	appidentity "github.com/dpnk/backend/internal/application/identity"
	"github.com/dpnk/backend/internal/application/payment"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler serves the participant's own account and attendance
type AccountHandler struct {
	BaseHandler
	accountService *appidentity.AccountService
	paymentService *payment.PaymentService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *appidentity.AccountService, paymentService *payment.PaymentService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		paymentService: paymentService,
	}
}

// Me godoc
// @Summary      Current participant
// @Description  Account data and, when registered in the current campaign, the attendance with its registration checklist
// @Tags         account
// @Produce      json
// @Success      200 {object} APIResponse[appidentity.MeResult]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	result, err := h.accountService.Me(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Attend godoc
// @Summary      Join the current campaign
// @Description  Creates the attendance of an existing account in the current campaign
// @Tags         account
// @Produce      json
// @Success      200 {object} APIResponse[appidentity.MeResult]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/attend [post]
func (h *AccountHandler) Attend(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	if _, err := h.accountService.Attend(c.Request.Context(), campaignID, userID, c.Query("personal_data_opt_in") == "true"); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.accountService.Me(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateProfile godoc
// @Summary      Update profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileRequest true "Profile"
// @Success      200 {object} APIResponse[appidentity.UserInfo]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/profile [put]
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	info, err := h.accountService.UpdateProfile(c.Request.Context(), userID, identity.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Nickname:   req.Nickname,
		Sex:        identity.Sex(req.Sex),
		Telephone:  req.Telephone,
		Language:   identity.Language(req.Language),
		Occupation: req.Occupation,
		AgeGroup:   req.AgeGroup,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// ChooseTShirt godoc
// @Summary      Choose t-shirt size
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        request body ChooseTShirtRequest true "Size"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/tshirt [put]
func (h *AccountHandler) ChooseTShirt(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req ChooseTShirtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}
	sizeID, err := uuid.Parse(req.SizeID)
	if err != nil {
		h.BadRequest(c, "Invalid tshirt_size_id")
		return
	}

	if err := h.accountService.ChooseTShirt(c.Request.Context(), campaignID, userID, sizeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, nil)
}

// MyVouchers godoc
// @Summary      My partner vouchers
// @Tags         account
// @Produce      json
// @Success      200 {object} APIResponse[[]payment.VoucherResponse]
// @Security     BearerAuth
// @Router       /me/vouchers [get]
func (h *AccountHandler) MyVouchers(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	vouchers, err := h.paymentService.MyVouchers(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vouchers)
}

// AssignVoucher godoc
// @Summary      Claim a partner voucher
// @Description  Gives a paid participant one voucher of the type; claiming again returns the same voucher
// @Tags         account
// @Produce      json
// @Param        type path string true "Voucher type" Enums(rekola, sportlife)
// @Success      200 {object} APIResponse[payment.VoucherResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/vouchers/{type} [post]
func (h *AccountHandler) AssignVoucher(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	typ := voucher.Type(c.Param("type"))
	if !typ.IsValid() {
		h.BadRequest(c, "Unknown voucher type")
		return
	}

	v, err := h.paymentService.AssignVoucher(c.Request.Context(), campaignID, userID, typ)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}
