package organization

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	InvitationTokenLength = 30
	tokenAlphabet         = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Team groups up to Campaign.MaxTeamMembers colleagues of one subsidiary
type Team struct {
	shared.CampaignAggregateRoot
	SubsidiaryID          uuid.UUID
	Name                  string
	InvitationToken       string
	MemberCount           int
	UnapprovedMemberCount int
}

// NewTeam creates a team with a fresh invitation token
func NewTeam(campaignID, subsidiaryID uuid.UUID, name string) (*Team, error) {
	if subsidiaryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "team must belong to a subsidiary")
	}
	t := &Team{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		SubsidiaryID:          subsidiaryID,
	}
	if err := t.Rename(name); err != nil {
		return nil, err
	}
	if err := t.RegenerateInvitationToken(); err != nil {
		return nil, err
	}
	return t, nil
}

// Rename sets a trimmed, non-empty name
func (t *Team) Rename(name string) error {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "team name cannot be empty")
	}
	if len([]rune(name)) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "team name cannot exceed 50 characters")
	}
	t.Name = name
	return nil
}

// RegenerateInvitationToken invalidates the old invitation link
func (t *Team) RegenerateInvitationToken() error {
	token, err := RandomToken(InvitationTokenLength)
	if err != nil {
		return err
	}
	t.InvitationToken = token
	return nil
}

// IsFull reports whether another approved member would exceed maxMembers
func (t *Team) IsFull(maxMembers int) bool {
	return maxMembers > 0 && t.MemberCount >= maxMembers
}

// FreeSlots returns how many approved members can still join
func (t *Team) FreeSlots(maxMembers int) int {
	if t.MemberCount >= maxMembers {
		return 0
	}
	return maxMembers - t.MemberCount
}

// SetMemberCounts stores the recounted member numbers
func (t *Team) SetMemberCounts(approved, unapproved int) {
	t.MemberCount = approved
	t.UnapprovedMemberCount = unapproved
}

// RandomToken returns n characters drawn from [A-Za-z0-9]
func RandomToken(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(tokenAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}
