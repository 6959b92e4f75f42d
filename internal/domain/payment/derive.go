package payment

import (
	"sort"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeriveInput collects what the payment state of an attendance depends on
type DeriveInput struct {
	AdmissionFee decimal.Decimal
	FullDiscount bool
	Payments     []Payment
	Common       []CommonTransaction
}

// DerivePaymentState computes the payment state of an attendance and the
// payment that represents it (newest done, else newest waiting, else newest)
func DerivePaymentState(in DeriveInput) (attendance.PaymentState, *uuid.UUID) {
	representative := Representative(in.Payments)
	var repID *uuid.UUID
	if representative != nil {
		id := representative.ID
		repID = &id
	}

	if in.AdmissionFee.IsZero() {
		return attendance.PaymentNoAdmission, repID
	}
	if in.FullDiscount {
		return attendance.PaymentDone, repID
	}
	for _, p := range in.Payments {
		if p.Status.IsDone() {
			return attendance.PaymentDone, repID
		}
	}
	for _, c := range in.Common {
		if c.Status.IsDone() {
			return attendance.PaymentDone, repID
		}
	}
	for _, p := range in.Payments {
		if p.Status.IsWaiting() {
			return attendance.PaymentWaiting, repID
		}
	}
	return attendance.PaymentNone, repID
}

// Representative picks the newest done payment, else the newest waiting
// one, else the newest payment
func Representative(payments []Payment) *Payment {
	if len(payments) == 0 {
		return nil
	}
	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	for i := range sorted {
		if sorted[i].Status.IsDone() {
			return &sorted[i]
		}
	}
	for i := range sorted {
		if sorted[i].Status.IsWaiting() {
			return &sorted[i]
		}
	}
	return &sorted[0]
}
