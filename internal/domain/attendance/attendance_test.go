package attendance

import (
	"testing"

	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttendance(t *testing.T, campaignID uuid.UUID) *UserAttendance {
	t.Helper()
	ua, err := NewUserAttendance(campaignID, uuid.New(), true)
	require.NoError(t, err)
	return ua
}

func newTeam(t *testing.T, campaignID uuid.UUID) *organization.Team {
	t.Helper()
	team, err := organization.NewTeam(campaignID, uuid.New(), "Cyklisti")
	require.NoError(t, err)
	return team
}

func TestNewUserAttendance(t *testing.T) {
	ua, err := NewUserAttendance(uuid.New(), uuid.New(), true)
	require.NoError(t, err)
	assert.Equal(t, PaymentNone, ua.PaymentStatus)
	assert.Equal(t, organization.ApprovalUndecided, ua.ApprovedForTeam)
	assert.Nil(t, ua.TeamID)

	_, err = NewUserAttendance(uuid.New(), uuid.New(), false)
	assert.Error(t, err)
	_, err = NewUserAttendance(uuid.New(), uuid.Nil, true)
	assert.Error(t, err)
}

func TestUserAttendance_JoinTeam(t *testing.T) {
	campaignID := uuid.New()

	t.Run("first member is approved", func(t *testing.T) {
		ua := newAttendance(t, campaignID)
		team := newTeam(t, campaignID)

		require.NoError(t, ua.JoinTeam(team, 0, 5))
		assert.True(t, ua.InTeam(team.ID))
		assert.Equal(t, organization.ApprovalApproved, ua.ApprovedForTeam)

		events := ua.GetDomainEvents()
		require.Len(t, events, 1)
		ev := events[0].(*TeamMembershipChangedEvent)
		assert.Nil(t, ev.OldTeamID)
		assert.Equal(t, team.ID, *ev.NewTeamID)
	})

	t.Run("later member waits for approval", func(t *testing.T) {
		ua := newAttendance(t, campaignID)
		require.NoError(t, ua.JoinTeam(newTeam(t, campaignID), 2, 5))
		assert.Equal(t, organization.ApprovalUndecided, ua.ApprovedForTeam)
	})

	t.Run("full team is rejected", func(t *testing.T) {
		ua := newAttendance(t, campaignID)
		err := ua.JoinTeam(newTeam(t, campaignID), 5, 5)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "TEAM_FULL", domainErr.Code)
		assert.Nil(t, ua.TeamID)
	})

	t.Run("team of another campaign is rejected", func(t *testing.T) {
		ua := newAttendance(t, campaignID)
		assert.Error(t, ua.JoinTeam(newTeam(t, uuid.New()), 0, 5))
	})

	t.Run("switching team records the old one", func(t *testing.T) {
		ua := newAttendance(t, campaignID)
		first, second := newTeam(t, campaignID), newTeam(t, campaignID)
		require.NoError(t, ua.JoinTeam(first, 0, 5))
		require.NoError(t, ua.JoinTeam(second, 1, 5))

		events := ua.GetDomainEvents()
		require.Len(t, events, 2)
		ev := events[1].(*TeamMembershipChangedEvent)
		assert.Equal(t, first.ID, *ev.OldTeamID)
		assert.Equal(t, second.ID, *ev.NewTeamID)
	})

	t.Run("rejoining the same team is a no-op", func(t *testing.T) {
		ua := newAttendance(t, campaignID)
		team := newTeam(t, campaignID)
		require.NoError(t, ua.JoinTeam(team, 0, 5))
		require.NoError(t, ua.JoinTeam(team, 5, 5))
		assert.Len(t, ua.GetDomainEvents(), 1)
	})
}

func TestUserAttendance_LeaveTeam(t *testing.T) {
	campaignID := uuid.New()
	ua := newAttendance(t, campaignID)
	assert.Error(t, ua.LeaveTeam())

	require.NoError(t, ua.JoinTeam(newTeam(t, campaignID), 0, 5))
	require.NoError(t, ua.LeaveTeam())
	assert.Nil(t, ua.TeamID)
	assert.Equal(t, organization.ApprovalUndecided, ua.ApprovedForTeam)
}

func TestUserAttendance_ApproveAndDeny(t *testing.T) {
	campaignID := uuid.New()
	team := newTeam(t, campaignID)

	captain := newAttendance(t, campaignID)
	require.NoError(t, captain.JoinTeam(team, 0, 5))

	t.Run("approved member approves newcomer", func(t *testing.T) {
		newcomer := newAttendance(t, campaignID)
		require.NoError(t, newcomer.JoinTeam(team, 1, 5))
		require.NoError(t, newcomer.ApproveBy(captain, 1, 5))
		assert.True(t, newcomer.IsApprovedTeamMember())
	})

	t.Run("approval refused when team is full", func(t *testing.T) {
		newcomer := newAttendance(t, campaignID)
		require.NoError(t, newcomer.JoinTeam(team, 1, 5))
		assert.Error(t, newcomer.ApproveBy(captain, 5, 5))
	})

	t.Run("undecided member cannot approve", func(t *testing.T) {
		a := newAttendance(t, campaignID)
		b := newAttendance(t, campaignID)
		require.NoError(t, a.JoinTeam(team, 1, 5))
		require.NoError(t, b.JoinTeam(team, 1, 5))
		assert.ErrorIs(t, b.ApproveBy(a, 1, 5), shared.ErrForbidden)
	})

	t.Run("member of another team cannot approve", func(t *testing.T) {
		other := newAttendance(t, campaignID)
		require.NoError(t, other.JoinTeam(newTeam(t, campaignID), 0, 5))
		newcomer := newAttendance(t, campaignID)
		require.NoError(t, newcomer.JoinTeam(team, 1, 5))
		assert.ErrorIs(t, newcomer.ApproveBy(other, 1, 5), shared.ErrForbidden)
	})

	t.Run("denied member loses team", func(t *testing.T) {
		newcomer := newAttendance(t, campaignID)
		require.NoError(t, newcomer.JoinTeam(team, 1, 5))
		require.NoError(t, newcomer.DenyBy(captain))
		assert.Nil(t, newcomer.TeamID)
		assert.Equal(t, organization.ApprovalDenied, newcomer.ApprovedForTeam)
	})

	t.Run("approved member cannot be denied", func(t *testing.T) {
		member := newAttendance(t, campaignID)
		require.NoError(t, member.JoinTeam(team, 1, 5))
		require.NoError(t, member.ApproveBy(captain, 1, 5))
		assert.Error(t, member.DenyBy(captain))
	})
}

func TestUserAttendance_SetPaymentStatus(t *testing.T) {
	ua := newAttendance(t, uuid.New())
	paymentID := uuid.New()

	assert.True(t, ua.SetPaymentStatus(PaymentWaiting, &paymentID))
	assert.False(t, ua.SetPaymentStatus(PaymentWaiting, &paymentID))
	assert.True(t, ua.SetPaymentStatus(PaymentDone, &paymentID))
	assert.True(t, ua.PaymentStatus.IsPaid())
	assert.True(t, ua.SetPaymentStatus(PaymentDone, nil))
}

func TestUserAttendance_HasEnoughRides(t *testing.T) {
	ua := newAttendance(t, uuid.New())
	ua.SetRideStatistics(decimal.NewFromFloat(123.456), decimal.NewFromFloat(0.66), 33, 50)

	assert.Equal(t, "123.46", ua.TripLengthTotal.StringFixed(2))
	assert.True(t, ua.HasEnoughRides(66))
	assert.False(t, ua.HasEnoughRides(67))
}

func TestUserAttendance_UseCoupon(t *testing.T) {
	ua := newAttendance(t, uuid.New())
	coupon := uuid.New()

	require.NoError(t, ua.UseCoupon(coupon))
	require.NoError(t, ua.UseCoupon(coupon))
	assert.True(t, ua.DiscountCouponUsed)
	assert.Error(t, ua.UseCoupon(uuid.New()))
}

func TestBuildChecklist(t *testing.T) {
	campaignID := uuid.New()
	ua := newAttendance(t, campaignID)

	c := BuildChecklist(ua, true, true)
	assert.False(t, c.Complete())
	assert.False(t, c.TShirtChosen)

	require.NoError(t, ua.JoinTeam(newTeam(t, campaignID), 0, 5))
	ua.SetPaymentStatus(PaymentNoAdmission, nil)
	c = BuildChecklist(ua, true, false)
	assert.True(t, c.Complete())
}
