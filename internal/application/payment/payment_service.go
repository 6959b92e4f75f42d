package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// notificationTTL is how long a handled gateway ping is remembered
const notificationTTL = 24 * time.Hour

// Repositories groups the stores the payment service works with
type Repositories struct {
	Campaigns     campaign.CampaignRepository
	Attendances   attendance.UserAttendanceRepository
	Users         identity.UserRepository
	Teams         organization.TeamRepository
	Subsidiaries  organization.SubsidiaryRepository
	CompanyAdmins organization.CompanyAdminRepository
	Payments      payment.PaymentRepository
	Common        payment.CommonTransactionRepository
	Coupons       voucher.CouponRepository
	Vouchers      voucher.VoucherRepository
}

// PaymentService handles entry fees: online payments, company-paid entries
// and discount coupons
type PaymentService struct {
	repos       Repositories
	gateway     payment.Gateway
	idempotency shared.IdempotencyStore
	tx          shared.Transactor
	publisher   shared.EventPublisher
	postman     *email.Postman
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	repos Repositories,
	gateway payment.Gateway,
	idempotency shared.IdempotencyStore,
	tx shared.Transactor,
	publisher shared.EventPublisher,
	postman *email.Postman,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repos:       repos,
		gateway:     gateway,
		idempotency: idempotency,
		tx:          tx,
		publisher:   publisher,
		postman:     postman,
		logger:      logger,
		now:         time.Now,
	}
}

// MyPayments lists the payments of the user with the derived payment state
func (s *PaymentService) MyPayments(ctx context.Context, campaignID, userID uuid.UUID) (*PaymentsOverview, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	fee, _, err := s.fee(ctx, c, ua)
	if err != nil {
		return nil, err
	}
	payments, err := s.repos.Payments.FindByAttendance(ctx, ua.ID)
	if err != nil {
		return nil, err
	}
	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = ToPaymentResponse(&payments[i])
	}
	return &PaymentsOverview{PaymentStatus: ua.PaymentStatus, Fee: fee, Payments: items}, nil
}

// StartPayment creates an online payment of the remaining entry fee and
// returns the signed gateway form
func (s *PaymentService) StartPayment(ctx context.Context, campaignID, userID uuid.UUID, input StartPaymentInput) (*PaymentFormResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if err := c.RequirePhase(campaign.PhasePayment, s.now()); err != nil {
		return nil, err
	}
	if ua.PaymentStatus.IsPaid() {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "The entry fee is already paid")
	}
	if input.PayType != "" && !input.PayType.IsOnline() {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Pay type is not an online channel")
	}
	fee, _, err := s.fee(ctx, c, ua)
	if err != nil {
		return nil, err
	}
	if !fee.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "There is no entry fee to pay")
	}
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("%s-1-%d", ua.ID.String()[:8], s.now().Unix())
	p, err := payment.NewPayment(c.ID, ua.ID, fee, input.PayType, orderID, s.gateway.NewSessionID())
	if err != nil {
		return nil, err
	}
	p.Description = "Startovné " + c.Name

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Payments.Save(ctx, p); err != nil {
			return err
		}
		if err := s.refresh(ctx, c, ua); err != nil {
			return err
		}
		return s.publishAndClear(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	form, err := s.gateway.PaymentForm(p, payment.Payer{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Language:  string(user.Profile.Language),
		ClientIP:  input.ClientIP,
	}, p.Description)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment started",
		zap.String("payment_id", p.ID.String()),
		zap.String("session_id", p.SessionID),
		zap.String("amount", p.Amount.String()))
	return &PaymentFormResponse{PaymentID: p.ID, Action: form.Action, Fields: form.Fields}, nil
}

// HandleNotification processes a gateway status ping: the signature is
// checked, the current state is fetched from the gateway and applied to the
// payment under a row lock. Repeated pings are ignored.
func (s *PaymentService) HandleNotification(ctx context.Context, n payment.Notification) error {
	if err := s.gateway.VerifyNotification(n); err != nil {
		s.logger.Warn("Notification verification failed",
			zap.String("session_id", n.SessionID),
			zap.Error(err))
		return err
	}

	key := fmt.Sprintf("payu:%s:%s", n.SessionID, n.Timestamp)
	fresh, err := s.idempotency.MarkProcessed(ctx, key, notificationTTL)
	if err != nil {
		return err
	}
	if !fresh {
		s.logger.Info("Notification already processed",
			zap.String("idempotency_key", key))
		return nil
	}

	if err := s.applyNotification(ctx, n); err != nil {
		if forgetErr := s.idempotency.Forget(ctx, key); forgetErr != nil {
			s.logger.Error("Failed to release notification key", zap.Error(forgetErr))
		}
		return err
	}
	return nil
}

func (s *PaymentService) applyNotification(ctx context.Context, n payment.Notification) error {
	report, err := s.gateway.FetchStatus(ctx, n.SessionID)
	if err != nil {
		s.logger.Error("Failed to fetch payment status",
			zap.String("session_id", n.SessionID),
			zap.Error(err))
		return err
	}

	var (
		settled *payment.Payment
		ua      *attendance.UserAttendance
	)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repos.Payments.FindBySessionIDForUpdate(ctx, n.SessionID)
		if err != nil {
			return err
		}
		wasDone := p.Status.IsDone()
		if !p.ApplyGatewayReport(*report) {
			return nil
		}
		if err := s.repos.Payments.Save(ctx, p); err != nil {
			return err
		}

		ua, err = s.repos.Attendances.FindByID(ctx, p.UserAttendanceID)
		if err != nil {
			return err
		}
		c, err := s.repos.Campaigns.FindByID(ctx, ua.CampaignID)
		if err != nil {
			return err
		}
		if err := s.refresh(ctx, c, ua); err != nil {
			return err
		}

		s.logger.Info("Payment status changed",
			zap.String("payment_id", p.ID.String()),
			zap.String("status", p.Status.String()),
			zap.String("trans_id", p.TransID))
		if p.Status.IsDone() && !wasDone {
			settled = p
		}
		return s.publishAndClear(ctx, p)
	})
	if err != nil {
		return err
	}

	if settled != nil {
		s.sendConfirmation(ctx, ua, settled)
	}
	return nil
}

func (s *PaymentService) sendConfirmation(ctx context.Context, ua *attendance.UserAttendance, p *payment.Payment) {
	user, err := s.repos.Users.FindByID(ctx, ua.UserID)
	if err != nil {
		s.logger.Warn("Cannot load payer for confirmation", zap.Error(err))
		return
	}
	c, err := s.repos.Campaigns.FindByID(ctx, ua.CampaignID)
	if err != nil {
		s.logger.Warn("Cannot load campaign for confirmation", zap.Error(err))
		return
	}
	msg, err := s.postman.Composer(c.Name).PaymentConfirmation(
		email.Address{Name: user.FullName(), Email: user.Email},
		p.Amount.StringFixed(0)+" Kč")
	s.postman.Deliver(ctx, msg, err)
}

// PaymentReturn handles the redirect back from the gateway. The state is
// only reported; status changes arrive by notification.
func (s *PaymentService) PaymentReturn(ctx context.Context, campaignID, userID uuid.UUID, success bool, input ReturnInput) (*ReturnResponse, error) {
	_, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.repos.Payments.FindBySessionID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if p.UserAttendanceID != ua.ID {
		return nil, shared.ErrNotFound
	}
	if !success && input.Error != "" && p.Error != input.Error {
		p.Error = input.Error
		if err := s.repos.Payments.Save(ctx, p); err != nil {
			return nil, err
		}
		s.logger.Warn("Payment returned with error",
			zap.String("session_id", p.SessionID),
			zap.String("error", input.Error))
	}
	return &ReturnResponse{
		Success:       success,
		Payment:       ToPaymentResponse(p),
		PaymentStatus: ua.PaymentStatus,
	}, nil
}

// ChooseCompanyPays asks the employer to cover the entry fee. An open
// company payment is returned as is.
func (s *PaymentService) ChooseCompanyPays(ctx context.Context, campaignID, userID uuid.UUID) (*PaymentResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if err := c.RequirePhase(campaign.PhasePayment, s.now()); err != nil {
		return nil, err
	}
	if ua.PaymentStatus.IsPaid() {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "The entry fee is already paid")
	}
	if ua.TeamID == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Join a team of your company first")
	}

	payments, err := s.repos.Payments.FindByAttendance(ctx, ua.ID)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].PayType == payment.PayTypeCompany && payments[i].Status.IsWaiting() {
			resp := ToPaymentResponse(&payments[i])
			return &resp, nil
		}
	}

	fee := c.AdmissionFee(campaign.PriceCategoryCompany, s.now())
	p, err := payment.NewCompanyPayment(c.ID, ua.ID, fee, s.gateway.NewSessionID())
	if err != nil {
		return nil, err
	}
	p.Description = "Platba přes firmu"

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Payments.Save(ctx, p); err != nil {
			return err
		}
		if err := s.refresh(ctx, c, ua); err != nil {
			return err
		}
		return s.publishAndClear(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// CompanyPayments lists the company-paid entries waiting for the company
// admin's decision
func (s *PaymentService) CompanyPayments(ctx context.Context, campaignID, adminUserID uuid.UUID, filter shared.Filter) (shared.Paginated[PaymentResponse], error) {
	admin, err := s.paymentsAdmin(ctx, campaignID, adminUserID)
	if err != nil {
		return shared.Paginated[PaymentResponse]{}, err
	}
	companyID := admin.CompanyID
	items, total, err := s.repos.Payments.FindAll(ctx, campaignID, payment.Filter{
		Filter:    filter,
		CompanyID: &companyID,
		PayType:   payment.PayTypeCompany,
		Statuses:  []payment.Status{payment.StatusNew},
	})
	if err != nil {
		return shared.Paginated[PaymentResponse]{}, err
	}
	out := make([]PaymentResponse, len(items))
	for i := range items {
		out[i] = ToPaymentResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter), nil
}

// DecideCompanyPayments approves or rejects company-paid entries of
// employees of the admin's company
func (s *PaymentService) DecideCompanyPayments(ctx context.Context, campaignID, adminUserID uuid.UUID, input CompanyDecisionInput) ([]PaymentResponse, error) {
	admin, err := s.paymentsAdmin(ctx, campaignID, adminUserID)
	if err != nil {
		return nil, err
	}
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	out := make([]PaymentResponse, 0, len(input.PaymentIDs))
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		payments, err := s.repos.Payments.FindByIDs(ctx, input.PaymentIDs)
		if err != nil {
			return err
		}
		if len(payments) != len(input.PaymentIDs) {
			return shared.ErrNotFound
		}
		for i := range payments {
			p := &payments[i]
			ua, err := s.repos.Attendances.FindByID(ctx, p.UserAttendanceID)
			if err != nil {
				return err
			}
			companyID, err := s.companyOf(ctx, ua)
			if err != nil {
				return err
			}
			if companyID == nil || *companyID != admin.CompanyID || p.CampaignID != campaignID {
				return shared.NewDomainError(shared.ErrForbidden.Code, "Payment does not belong to your company")
			}

			if input.Reject {
				err = p.RejectByCompany(adminUserID)
			} else {
				err = p.AcceptByCompany(adminUserID)
			}
			if err != nil {
				return err
			}
			if err := s.repos.Payments.Save(ctx, p); err != nil {
				return err
			}
			if err := s.refresh(ctx, c, ua); err != nil {
				return err
			}
			if err := s.publishAndClear(ctx, p); err != nil {
				return err
			}
			out = append(out, ToPaymentResponse(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Company payments decided",
		zap.String("company_id", admin.CompanyID.String()),
		zap.Bool("rejected", input.Reject),
		zap.Int("count", len(out)))
	return out, nil
}

// ApplyCoupon stores a discount coupon on the attendance. A coupon that
// waives the whole fee settles the entry with a free-entry payment.
func (s *PaymentService) ApplyCoupon(ctx context.Context, campaignID, userID uuid.UUID, input ApplyCouponInput) (*CouponResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	couponType, token, err := voucher.ParseCode(input.Code)
	if err != nil {
		return nil, err
	}

	var resp *CouponResponse
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		coupon, err := s.repos.Coupons.FindByCode(ctx, campaignID, couponType, token)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_COUPON", "Unknown discount coupon")
		}
		if err != nil {
			return err
		}
		if ua.DiscountCouponID == nil || *ua.DiscountCouponID != coupon.ID {
			used, err := s.repos.Coupons.CountUses(ctx, coupon.ID)
			if err != nil {
				return err
			}
			if err := coupon.CheckUsable(used, s.now()); err != nil {
				return err
			}
		}
		if err := ua.UseCoupon(coupon.ID); err != nil {
			return err
		}

		if coupon.IsFree() && !ua.PaymentStatus.IsPaid() {
			p, err := payment.NewFreeEntry(c.ID, ua.ID, s.gateway.NewSessionID(), "Slevový kupón "+coupon.Code())
			if err != nil {
				return err
			}
			if err := s.repos.Payments.Save(ctx, p); err != nil {
				return err
			}
			if err := s.publishAndClear(ctx, p); err != nil {
				return err
			}
		}
		if err := s.repos.Attendances.Save(ctx, ua); err != nil {
			return err
		}
		if err := s.refresh(ctx, c, ua); err != nil {
			return err
		}

		resp = &CouponResponse{
			Code:          coupon.Code(),
			Discount:      coupon.Discount,
			Fee:           coupon.Apply(c.AdmissionFee(campaign.PriceCategoryBasic, s.now())),
			PaymentStatus: ua.PaymentStatus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Discount coupon applied",
		zap.String("user_attendance_id", ua.ID.String()),
		zap.String("code", resp.Code))
	return resp, nil
}

// AddCommonTransaction records a payment state entered by staff, e.g. a fee
// settled in cash
func (s *PaymentService) AddCommonTransaction(ctx context.Context, campaignID, authorID uuid.UUID, input CommonTransactionInput) error {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return err
	}
	ua, err := s.repos.Attendances.FindByID(ctx, input.UserAttendanceID)
	if err != nil {
		return err
	}
	if ua.CampaignID != campaignID {
		return shared.ErrNotFound
	}
	t, err := payment.NewCommonTransaction(campaignID, ua.ID, input.Status, authorID, input.Description)
	if err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Common.Save(ctx, t); err != nil {
			return err
		}
		if err := s.refresh(ctx, c, ua); err != nil {
			return err
		}
		return s.publishAndClear(ctx, t)
	})
}

// RefreshPaymentStatus derives and stores the payment state of an attendance
func (s *PaymentService) RefreshPaymentStatus(ctx context.Context, userAttendanceID uuid.UUID) error {
	ua, err := s.repos.Attendances.FindByID(ctx, userAttendanceID)
	if err != nil {
		return err
	}
	c, err := s.repos.Campaigns.FindByID(ctx, ua.CampaignID)
	if err != nil {
		return err
	}
	return s.refresh(ctx, c, ua)
}

// refresh recomputes the payment state of ua and saves it when it changed
func (s *PaymentService) refresh(ctx context.Context, c *campaign.Campaign, ua *attendance.UserAttendance) error {
	payments, err := s.repos.Payments.FindByAttendance(ctx, ua.ID)
	if err != nil {
		return err
	}
	common, err := s.repos.Common.FindByAttendance(ctx, ua.ID)
	if err != nil {
		return err
	}
	_, coupon, err := s.fee(ctx, c, ua)
	if err != nil {
		return err
	}

	state, representative := payment.DerivePaymentState(payment.DeriveInput{
		AdmissionFee: c.AdmissionFee(campaign.PriceCategoryBasic, s.now()),
		FullDiscount: coupon != nil && coupon.IsFree(),
		Payments:     payments,
		Common:       common,
	})
	if !ua.SetPaymentStatus(state, representative) {
		return nil
	}
	s.logger.Debug("Payment status derived",
		zap.String("user_attendance_id", ua.ID.String()),
		zap.String("status", string(state)))
	return s.repos.Attendances.Save(ctx, ua)
}

// fee returns the basic entry fee after the applied coupon
func (s *PaymentService) fee(ctx context.Context, c *campaign.Campaign, ua *attendance.UserAttendance) (decimal.Decimal, *voucher.DiscountCoupon, error) {
	fee := c.AdmissionFee(campaign.PriceCategoryBasic, s.now())
	if ua.DiscountCouponID == nil {
		return fee, nil, nil
	}
	coupon, err := s.repos.Coupons.FindByID(ctx, *ua.DiscountCouponID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return coupon.Apply(fee), coupon, nil
}

func (s *PaymentService) participant(ctx context.Context, campaignID, userID uuid.UUID) (*campaign.Campaign, *attendance.UserAttendance, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, nil, err
	}
	return c, ua, nil
}

func (s *PaymentService) paymentsAdmin(ctx context.Context, campaignID, userID uuid.UUID) (*organization.CompanyAdmin, error) {
	admin, err := s.repos.CompanyAdmins.FindByUser(ctx, campaignID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "You are not a company coordinator")
	}
	if err != nil {
		return nil, err
	}
	if !admin.CanManagePayments() {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "You may not confirm company payments")
	}
	return admin, nil
}

func (s *PaymentService) companyOf(ctx context.Context, ua *attendance.UserAttendance) (*uuid.UUID, error) {
	if ua.TeamID == nil {
		return nil, nil
	}
	team, err := s.repos.Teams.FindByID(ctx, *ua.TeamID)
	if err != nil {
		return nil, err
	}
	sub, err := s.repos.Subsidiaries.FindByID(ctx, team.SubsidiaryID)
	if err != nil {
		return nil, err
	}
	return &sub.CompanyID, nil
}

// eventSource is a payment or a common transaction with pending events
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func (s *PaymentService) publishAndClear(ctx context.Context, src eventSource) error {
	if err := s.publisher.Publish(ctx, src.GetDomainEvents()...); err != nil {
		return err
	}
	src.ClearDomainEvents()
	return nil
}
