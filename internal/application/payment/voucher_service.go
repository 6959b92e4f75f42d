package payment

import (
	"context"
	"errors"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MyVouchers lists the partner vouchers given to the participant
func (s *PaymentService) MyVouchers(ctx context.Context, campaignID, userID uuid.UUID) ([]VoucherResponse, error) {
	_, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.repos.Vouchers.FindByAttendance(ctx, ua.ID)
	if err != nil {
		return nil, err
	}
	out := make([]VoucherResponse, len(vouchers))
	for i := range vouchers {
		out[i] = ToVoucherResponse(&vouchers[i])
	}
	return out, nil
}

// AssignVoucher gives a paid participant one voucher of the type. Asking
// again returns the voucher already given.
func (s *PaymentService) AssignVoucher(ctx context.Context, campaignID, userID uuid.UUID, typ voucher.Type) (*VoucherResponse, error) {
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown voucher type: "+string(typ))
	}
	_, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if !ua.PaymentStatus.IsPaid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Vouchers are given to paid participants only")
	}

	var assigned *voucher.Voucher
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		owned, err := s.repos.Vouchers.FindByAttendance(ctx, ua.ID)
		if err != nil {
			return err
		}
		for i := range owned {
			if owned[i].Type == typ {
				assigned = &owned[i]
				return nil
			}
		}
		v, err := s.repos.Vouchers.FindFreeForUpdate(ctx, campaignID, typ)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("VOUCHERS_EXHAUSTED", "No "+string(typ)+" vouchers are left")
		}
		if err != nil {
			return err
		}
		if err := v.AssignTo(ua.ID); err != nil {
			return err
		}
		assigned = v
		return s.repos.Vouchers.Save(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Voucher assigned",
		zap.String("user_attendance_id", ua.ID.String()),
		zap.String("type", string(typ)))
	resp := ToVoucherResponse(assigned)
	return &resp, nil
}
