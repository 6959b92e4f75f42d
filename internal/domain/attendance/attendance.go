package attendance

import (
	"time"

	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentState is the denormalized entry fee state of an attendance
type PaymentState string

const (
	PaymentNone        PaymentState = "none"
	PaymentDone        PaymentState = "done"
	PaymentWaiting     PaymentState = "waiting"
	PaymentNoAdmission PaymentState = "no_admission"
	PaymentUnknown     PaymentState = "unknown"
)

// IsPaid reports whether the participant may enter competitions
func (s PaymentState) IsPaid() bool {
	return s == PaymentDone || s == PaymentNoAdmission
}

// UserAttendance is the participation of one user in one campaign
type UserAttendance struct {
	shared.CampaignAggregateRoot
	UserID                  uuid.UUID
	TeamID                  *uuid.UUID
	ApprovedForTeam         organization.ApprovalState
	TShirtSizeID            *uuid.UUID
	PersonalDataOptIn       bool
	DiscountCouponID        *uuid.UUID
	DiscountCouponUsed      bool
	PaymentStatus           PaymentState
	RepresentativePaymentID *uuid.UUID
	TripLengthTotal         decimal.Decimal
	Frequency               decimal.Decimal
	GetRidesCount           int
	WorkingRidesBase        int
}

// NewUserAttendance registers the user for the campaign
func NewUserAttendance(campaignID, userID uuid.UUID, personalDataOptIn bool) (*UserAttendance, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "attendance must belong to a user")
	}
	if !personalDataOptIn {
		return nil, shared.NewDomainError("INVALID_INPUT", "personal data processing must be agreed to")
	}
	return &UserAttendance{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		UserID:                userID,
		ApprovedForTeam:       organization.ApprovalUndecided,
		PersonalDataOptIn:     personalDataOptIn,
		PaymentStatus:         PaymentNone,
		TripLengthTotal:       decimal.Zero,
		Frequency:             decimal.Zero,
	}, nil
}

// InTeam reports whether the attendance is linked to teamID
func (ua *UserAttendance) InTeam(teamID uuid.UUID) bool {
	return ua.TeamID != nil && *ua.TeamID == teamID
}

// IsApprovedTeamMember returns true for an approved member of any team
func (ua *UserAttendance) IsApprovedTeamMember() bool {
	return ua.TeamID != nil && ua.ApprovedForTeam == organization.ApprovalApproved
}

// JoinTeam links the attendance to team. approvedMembers is the number of
// approved members of the team not counting ua. The first member is
// approved right away; everyone else waits for the team to decide.
func (ua *UserAttendance) JoinTeam(team *organization.Team, approvedMembers, maxMembers int) error {
	if team.CampaignID != ua.CampaignID {
		return shared.NewDomainError("INVALID_INPUT", "team belongs to another campaign")
	}
	if ua.InTeam(team.ID) && ua.ApprovedForTeam != organization.ApprovalDenied {
		return nil
	}
	if maxMembers > 0 && approvedMembers >= maxMembers {
		return shared.NewDomainError("TEAM_FULL", "team is already full")
	}

	oldTeamID := ua.TeamID
	teamID := team.ID
	ua.TeamID = &teamID
	if approvedMembers == 0 {
		ua.ApprovedForTeam = organization.ApprovalApproved
	} else {
		ua.ApprovedForTeam = organization.ApprovalUndecided
	}
	ua.touch()
	ua.AddDomainEvent(NewTeamMembershipChangedEvent(ua, oldTeamID))
	return nil
}

// LeaveTeam drops the team link and resets the approval
func (ua *UserAttendance) LeaveTeam() error {
	if ua.TeamID == nil {
		return shared.NewDomainError("INVALID_STATE", "attendance is not in a team")
	}
	oldTeamID := ua.TeamID
	ua.TeamID = nil
	ua.ApprovedForTeam = organization.ApprovalUndecided
	ua.touch()
	ua.AddDomainEvent(NewTeamMembershipChangedEvent(ua, oldTeamID))
	return nil
}

// ApproveBy lets an approved member of the same team accept ua
func (ua *UserAttendance) ApproveBy(approver *UserAttendance, approvedMembers, maxMembers int) error {
	if err := ua.checkDecider(approver); err != nil {
		return err
	}
	if ua.ApprovedForTeam == organization.ApprovalApproved {
		return nil
	}
	if maxMembers > 0 && approvedMembers >= maxMembers {
		return shared.NewDomainError("TEAM_FULL", "team is already full")
	}
	ua.ApprovedForTeam = organization.ApprovalApproved
	ua.touch()
	ua.AddDomainEvent(NewTeamMembershipChangedEvent(ua, ua.TeamID))
	return nil
}

// DenyBy lets an approved member of the same team reject ua. The denied
// attendance loses its team link.
func (ua *UserAttendance) DenyBy(approver *UserAttendance) error {
	if err := ua.checkDecider(approver); err != nil {
		return err
	}
	if ua.ApprovedForTeam == organization.ApprovalApproved {
		return shared.NewDomainError("INVALID_STATE", "approved members cannot be denied")
	}
	oldTeamID := ua.TeamID
	ua.TeamID = nil
	ua.ApprovedForTeam = organization.ApprovalDenied
	ua.touch()
	ua.AddDomainEvent(NewTeamMembershipChangedEvent(ua, oldTeamID))
	return nil
}

func (ua *UserAttendance) checkDecider(approver *UserAttendance) error {
	if ua.TeamID == nil {
		return shared.NewDomainError("INVALID_STATE", "attendance is not in a team")
	}
	if approver.ID == ua.ID {
		return shared.ErrForbidden.Withf("members cannot decide about themselves")
	}
	if !approver.IsApprovedTeamMember() || !approver.InTeam(*ua.TeamID) {
		return shared.ErrForbidden.Withf("only approved members of the team can decide about new members")
	}
	return nil
}

// ChooseTShirt stores the ordered t-shirt size
func (ua *UserAttendance) ChooseTShirt(sizeID uuid.UUID) {
	ua.TShirtSizeID = &sizeID
	ua.touch()
}

// UseCoupon stores the applied discount coupon
func (ua *UserAttendance) UseCoupon(couponID uuid.UUID) error {
	if ua.DiscountCouponID != nil && *ua.DiscountCouponID != couponID {
		return shared.NewDomainError("INVALID_STATE", "another discount coupon is already applied")
	}
	ua.DiscountCouponID = &couponID
	ua.DiscountCouponUsed = true
	ua.touch()
	return nil
}

// SetPaymentStatus stores the derived payment state and returns true when
// the state or the representative payment changed
func (ua *UserAttendance) SetPaymentStatus(state PaymentState, representative *uuid.UUID) bool {
	changed := ua.PaymentStatus != state || !sameID(ua.RepresentativePaymentID, representative)
	ua.PaymentStatus = state
	ua.RepresentativePaymentID = representative
	if changed {
		ua.touch()
	}
	return changed
}

// SetRideStatistics stores the recomputed trip statistics
func (ua *UserAttendance) SetRideStatistics(length, frequency decimal.Decimal, rides, workingRides int) {
	ua.TripLengthTotal = length.Round(2)
	ua.Frequency = frequency.Round(4)
	ua.GetRidesCount = rides
	ua.WorkingRidesBase = workingRides
}

// HasEnoughRides reports whether the frequency reaches minimumPercentage
func (ua *UserAttendance) HasEnoughRides(minimumPercentage int) bool {
	return ua.Frequency.Mul(decimal.NewFromInt(100)).GreaterThanOrEqual(decimal.NewFromInt(int64(minimumPercentage)))
}

func (ua *UserAttendance) touch() {
	ua.UpdatedAt = time.Now()
	ua.IncrementVersion()
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
