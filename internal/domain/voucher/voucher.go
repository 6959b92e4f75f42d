package voucher

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type is the partner that issued a voucher
type Type string

const (
	TypeRekola    Type = "rekola"
	TypeSportlife Type = "sportlife"
)

// IsValid returns true if the voucher type is known
func (t Type) IsValid() bool {
	return t == TypeRekola || t == TypeSportlife
}

// Voucher is a partner code given to a paid participant
type Voucher struct {
	shared.CampaignAggregateRoot
	Type             Type
	Token            string
	UserAttendanceID *uuid.UUID
}

// NewVoucher imports a partner token
func NewVoucher(campaignID uuid.UUID, typ Type, token string) (*Voucher, error) {
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown voucher type: "+string(typ))
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "voucher token cannot be empty")
	}
	return &Voucher{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		Type:                  typ,
		Token:                 token,
	}, nil
}

// AssignTo gives the voucher to an attendance
func (v *Voucher) AssignTo(userAttendanceID uuid.UUID) error {
	if v.UserAttendanceID != nil {
		return shared.NewDomainError("INVALID_STATE", "voucher is already assigned")
	}
	v.UserAttendanceID = &userAttendanceID
	v.IncrementVersion()
	return nil
}

func randomToken(n int) (string, error) {
	var sb strings.Builder
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
