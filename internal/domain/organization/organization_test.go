package organization

import (
	"testing"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() valueobject.Address {
	return valueobject.MustNewAddress("Vinohradská", "12", "Praha", "12000")
}

func TestNormalizeICO(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"empty is allowed", "", "", false},
		{"valid", "22670319", "22670319", false},
		{"spaces stripped", "226 703 19", "22670319", false},
		{"left padded", "6947", "00006947", false},
		{"bad check digit", "22670318", "", true},
		{"letters", "2267031A", "", true},
		{"too long", "226703190", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeICO(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewCompany(t *testing.T) {
	t.Run("creates company", func(t *testing.T) {
		c, err := NewCompany("  Auto*Mat  ", "22670319", "cz 22670319", testAddress())
		require.NoError(t, err)
		assert.Equal(t, "Auto*Mat", c.Name)
		assert.Equal(t, "CZ22670319", c.DIC)
		assert.True(t, c.Active)
	})

	t.Run("normalized name ignores case and spacing", func(t *testing.T) {
		c, err := NewCompany("Big   Corp", "", "", testAddress())
		require.NoError(t, err)
		assert.Equal(t, "big corp", c.NormalizedName())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCompany(" ", "", "", testAddress())
		assert.Error(t, err)
	})

	t.Run("rejects invalid ico", func(t *testing.T) {
		_, err := NewCompany("Corp", "12345678", "", testAddress())
		assert.Error(t, err)
	})
}

func TestNewSubsidiary(t *testing.T) {
	companyID, cityID := uuid.New(), uuid.New()

	s, err := NewSubsidiary(companyID, cityID, testAddress())
	require.NoError(t, err)
	assert.True(t, s.Active)
	assert.Equal(t, "Corp", s.Recipient("Corp"))

	s.BoxAddressee = BoxAddressee{Name: "Jana Nováková"}
	assert.Equal(t, "Jana Nováková", s.Recipient("Corp"))

	_, err = NewSubsidiary(uuid.Nil, cityID, testAddress())
	assert.Error(t, err)
	_, err = NewSubsidiary(companyID, cityID, valueobject.Address{})
	assert.Error(t, err)
}

func TestNewTeam(t *testing.T) {
	campaignID, subsidiaryID := uuid.New(), uuid.New()

	t.Run("creates team with token", func(t *testing.T) {
		team, err := NewTeam(campaignID, subsidiaryID, "  Rychlá   kola ")
		require.NoError(t, err)
		assert.Equal(t, "Rychlá kola", team.Name)
		assert.Len(t, team.InvitationToken, InvitationTokenLength)
		assert.Equal(t, campaignID, team.CampaignID)
	})

	t.Run("regenerates token", func(t *testing.T) {
		team, err := NewTeam(campaignID, subsidiaryID, "Team")
		require.NoError(t, err)
		old := team.InvitationToken
		require.NoError(t, team.RegenerateInvitationToken())
		assert.NotEqual(t, old, team.InvitationToken)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTeam(campaignID, subsidiaryID, "   ")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("rejects missing subsidiary", func(t *testing.T) {
		_, err := NewTeam(campaignID, uuid.Nil, "Team")
		assert.Error(t, err)
	})
}

func TestTeam_Capacity(t *testing.T) {
	team, err := NewTeam(uuid.New(), uuid.New(), "Team")
	require.NoError(t, err)

	team.SetMemberCounts(4, 2)
	assert.False(t, team.IsFull(5))
	assert.Equal(t, 1, team.FreeSlots(5))

	team.SetMemberCounts(5, 0)
	assert.True(t, team.IsFull(5))
	assert.Equal(t, 0, team.FreeSlots(5))
}

func TestRandomToken(t *testing.T) {
	token, err := RandomToken(40)
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Za-z0-9]{40}$`, token)
}

func TestCompanyAdmin(t *testing.T) {
	admin := NewCompanyAdmin(uuid.New(), uuid.New(), uuid.New())
	assert.Equal(t, ApprovalUndecided, admin.Approved)
	assert.False(t, admin.CanManagePayments())

	require.NoError(t, admin.Decide(ApprovalApproved))
	assert.True(t, admin.CanManagePayments())

	assert.Error(t, admin.Decide(ApprovalState("maybe")))
}
