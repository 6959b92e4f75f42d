package handler

import (
	"net/http"

	apppayment "github.com/dpnk/backend/internal/application/payment"
	"github.com/gin-gonic/gin"
)

// PaymentHandler serves entry fee payments, the PayU callbacks, coupons and
// company-paid entries
type PaymentHandler struct {
	BaseHandler
	paymentService *apppayment.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *apppayment.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// MyPayments godoc
// @Summary      My payments
// @Description  Payment status, the fee due and every payment of the participant
// @Tags         payments
// @Produce      json
// @Success      200 {object} APIResponse[apppayment.PaymentsOverview]
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) MyPayments(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	overview, err := h.paymentService.MyPayments(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, overview)
}

// StartPayment godoc
// @Summary      Start an online payment
// @Description  Creates the payment and returns the signed form the browser posts to PayU
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body apppayment.StartPaymentInput true "Pay type"
// @Success      201 {object} APIResponse[apppayment.PaymentFormResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) StartPayment(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req apppayment.StartPaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}
	req.ClientIP = c.ClientIP()

	form, err := h.paymentService.StartPayment(c.Request.Context(), campaignID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, form)
}

// ChooseCompanyPays godoc
// @Summary      Let the company pay
// @Description  Creates a company-paid entry waiting for the company admin's approval
// @Tags         payments
// @Produce      json
// @Success      201 {object} APIResponse[apppayment.PaymentResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/company [post]
func (h *PaymentHandler) ChooseCompanyPays(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	p, err := h.paymentService.ChooseCompanyPays(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, p)
}

// Notify godoc
// @Summary      PayU notification
// @Description  Verifies the notification signature, fetches the payment state from PayU and answers "OK"
// @Tags         payments
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Param        pos_id     formData string true "POS ID"
// @Param        session_id formData string true "Session ID"
// @Param        ts         formData string true "Timestamp"
// @Param        sig        formData string true "Signature"
// @Success      200 {string} string "OK"
// @Failure      400 {object} ErrorResponse
// @Router       /payu/notify [post]
func (h *PaymentHandler) Notify(c *gin.Context) {
	var req apppayment.NotificationInput
	if err := c.ShouldBind(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	if err := h.paymentService.HandleNotification(c.Request.Context(), req.ToNotification()); err != nil {
		h.HandleError(c, err)
		return
	}

	c.String(http.StatusOK, "OK")
}

// PaymentReturn godoc
// @Summary      Return from PayU
// @Description  Handles the success or error redirect of the gateway
// @Tags         payments
// @Produce      json
// @Param        status     path  string true  "success or error"
// @Param        session_id query string true  "Session ID"
// @Param        trans_id   query string false "Transaction ID"
// @Param        pos_id     query string false "POS ID"
// @Param        error      query string false "Gateway error code"
// @Success      200 {object} APIResponse[apppayment.ReturnResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/return/{status} [get]
func (h *PaymentHandler) PaymentReturn(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var success bool
	switch c.Param("status") {
	case "success":
		success = true
	case "error":
	default:
		h.NotFound(c, "Unknown return status")
		return
	}

	var req apppayment.ReturnInput
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	res, err := h.paymentService.PaymentReturn(c.Request.Context(), campaignID, userID, success, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, res)
}

// ApplyCoupon godoc
// @Summary      Apply a discount coupon
// @Description  A 100 % coupon pays the entry fee
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body apppayment.ApplyCouponInput true "Coupon code"
// @Success      200 {object} APIResponse[apppayment.CouponResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /coupons/apply [post]
func (h *PaymentHandler) ApplyCoupon(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req apppayment.ApplyCouponInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	res, err := h.paymentService.ApplyCoupon(c.Request.Context(), campaignID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, res)
}

// CompanyPayments godoc
// @Summary      Company-paid entries
// @Description  Entries of employees that the company admin may approve
// @Tags         company-admin
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]apppayment.PaymentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company-admin/payments [get]
func (h *PaymentHandler) CompanyPayments(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.paymentService.CompanyPayments(c.Request.Context(), campaignID, userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	successPage(&h.BaseHandler, c, page)
}

// ApproveCompanyPayments godoc
// @Summary      Approve or reject company-paid entries
// @Tags         company-admin
// @Accept       json
// @Produce      json
// @Param        request body apppayment.CompanyDecisionInput true "Decision"
// @Success      200 {object} APIResponse[[]apppayment.PaymentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company-admin/payments/approve [post]
func (h *PaymentHandler) ApproveCompanyPayments(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req apppayment.CompanyDecisionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	decided, err := h.paymentService.DecideCompanyPayments(c.Request.Context(), campaignID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, decided)
}

// AddCommonTransaction godoc
// @Summary      Record a manual transaction
// @Description  Staff record of a payment made outside the gateway
// @Tags         admin
// @Accept       json
// @Param        request body apppayment.CommonTransactionInput true "Transaction"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/transactions [post]
func (h *PaymentHandler) AddCommonTransaction(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req apppayment.CommonTransactionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	if err := h.paymentService.AddCommonTransaction(c.Request.Context(), campaignID, userID, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
