package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountRepositories groups the repositories the account service reads
type AccountRepositories struct {
	Users       identity.UserRepository
	Attendances attendance.UserAttendanceRepository
	Campaigns   campaign.CampaignRepository
	TShirtSizes campaign.TShirtSizeRepository
	Coupons     voucher.CouponRepository
}

// AccountService registers participants and manages their profile and
// campaign attendance
type AccountService struct {
	repos      AccountRepositories
	tx         shared.Transactor
	publisher  shared.EventPublisher
	jwtService *auth.JWTService
	postman    *email.Postman
	logger     *zap.Logger
	now        func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(
	repos AccountRepositories,
	tx shared.Transactor,
	publisher shared.EventPublisher,
	jwtService *auth.JWTService,
	postman *email.Postman,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		repos:      repos,
		tx:         tx,
		publisher:  publisher,
		jwtService: jwtService,
		postman:    postman,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates the account and its attendance of campaignID. The
// registration phase of the campaign has to be open.
func (s *AccountService) Register(ctx context.Context, campaignID uuid.UUID, input RegisterInput) (*RegisterResult, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := c.RequirePhase(campaign.PhaseRegistration, s.now()); err != nil {
		return nil, err
	}

	exists, err := s.repos.Users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "An account with this e-mail already exists")
	}

	user, err := identity.NewUser(input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}
	ua, err := attendance.NewUserAttendance(c.ID, user.ID, input.PersonalDataOptIn)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := s.repos.Attendances.Save(ctx, ua); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &user.BaseAggregateRoot, &ua.BaseAggregateRoot)
	})
	if err != nil {
		s.logger.Error("Failed to register user", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(tokenInput(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	msg, err := s.postman.Composer(c.Name).Welcome(email.Address{Name: user.FullName(), Email: user.Email})
	s.postman.Deliver(ctx, msg, err)

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("campaign", c.Slug))

	return &RegisterResult{
		User:             userInfo(user),
		UserAttendanceID: ua.ID,
		Tokens:           tokensFrom(tokenPair),
	}, nil
}

// Attend creates the attendance of an existing account in campaignID, or
// returns the existing one
func (s *AccountService) Attend(ctx context.Context, campaignID, userID uuid.UUID, personalDataOptIn bool) (*attendance.UserAttendance, error) {
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err == nil {
		return ua, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := c.RequirePhase(campaign.PhaseRegistration, s.now()); err != nil {
		return nil, err
	}
	ua, err = attendance.NewUserAttendance(campaignID, userID, personalDataOptIn)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Attendances.Save(ctx, ua); err != nil {
		return nil, err
	}
	s.logger.Info("User joined campaign",
		zap.String("user_id", userID.String()),
		zap.String("campaign", c.Slug))
	return ua, nil
}

// Me returns the account and, when the user takes part in campaignID, the
// attendance with its registration checklist
func (s *AccountService) Me(ctx context.Context, campaignID, userID uuid.UUID) (*MeResult, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := &MeResult{User: userInfo(user)}

	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	sizes, err := s.repos.TShirtSizes.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	fee, err := s.EntryFee(ctx, c, ua)
	if err != nil {
		return nil, err
	}

	checklist := attendance.BuildChecklist(ua, user.ProfileComplete(), len(sizes) > 0)
	result.Attendance = &AttendanceInfo{
		ID:              ua.ID,
		TeamID:          ua.TeamID,
		ApprovedForTeam: string(ua.ApprovedForTeam),
		TShirtSizeID:    ua.TShirtSizeID,
		PaymentStatus:   ua.PaymentStatus,
		EntryFee:        fee,
		TripLengthTotal: ua.TripLengthTotal,
		Frequency:       ua.Frequency,
		Rides:           ua.GetRidesCount,
		Checklist:       checklist,
		Complete:        checklist.Complete(),
	}
	return result, nil
}

// EntryFee is the basic admission fee of today reduced by the coupon the
// attendance applied
func (s *AccountService) EntryFee(ctx context.Context, c *campaign.Campaign, ua *attendance.UserAttendance) (decimal.Decimal, error) {
	fee := c.AdmissionFee(campaign.PriceCategoryBasic, s.now())
	if ua.DiscountCouponID == nil {
		return fee, nil
	}
	coupon, err := s.repos.Coupons.FindByID(ctx, *ua.DiscountCouponID)
	if err != nil {
		return decimal.Zero, err
	}
	return coupon.Apply(fee), nil
}

// UpdateProfile applies the profile fields
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, update identity.ProfileUpdate) (*UserInfo, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(update); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Users.Update(ctx, user); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &user.BaseAggregateRoot)
	})
	if err != nil {
		return nil, err
	}

	info := userInfo(user)
	return &info, nil
}

// ChooseTShirt stores the t-shirt size ordered by the participant. The size
// must belong to the campaign and still be available.
func (s *AccountService) ChooseTShirt(ctx context.Context, campaignID, userID, sizeID uuid.UUID) error {
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return err
	}
	size, err := s.repos.TShirtSizes.FindByID(ctx, sizeID)
	if err != nil {
		return err
	}
	if size.CampaignID != campaignID || !size.Available {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "T-shirt size is not available")
	}
	ua.ChooseTShirt(size.ID)
	return s.repos.Attendances.Save(ctx, ua)
}

func (s *AccountService) publishAndClear(ctx context.Context, roots ...*shared.BaseAggregateRoot) error {
	for _, root := range roots {
		if err := s.publisher.Publish(ctx, root.GetDomainEvents()...); err != nil {
			return err
		}
		root.ClearDomainEvents()
	}
	return nil
}
