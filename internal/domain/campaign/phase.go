package campaign

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
)

// PhaseType identifies a time-bounded part of a campaign
type PhaseType string

const (
	PhaseRegistration PhaseType = "registration"
	PhaseEntryEnabled PhaseType = "entry_enabled"
	PhasePayment      PhaseType = "payment"
	PhaseCompetition  PhaseType = "competition"
	PhaseResults      PhaseType = "results"
	PhaseInvoices     PhaseType = "invoices"
	PhaseAdmissions   PhaseType = "admissions"
)

// IsValid returns true if the phase type is known
func (t PhaseType) IsValid() bool {
	switch t {
	case PhaseRegistration, PhaseEntryEnabled, PhasePayment, PhaseCompetition,
		PhaseResults, PhaseInvoices, PhaseAdmissions:
		return true
	default:
		return false
	}
}

// Phase is a date range of a campaign. Missing bounds are open.
type Phase struct {
	Type     PhaseType  `json:"phase_type"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// NewPhase creates a phase, validating that the range is not reversed
func NewPhase(phaseType PhaseType, from, to *time.Time) (Phase, error) {
	if !phaseType.IsValid() {
		return Phase{}, shared.NewDomainError("INVALID_INPUT", "unknown phase type: "+string(phaseType))
	}
	if from != nil && to != nil && to.Before(*from) {
		return Phase{}, shared.NewDomainError("INVALID_INPUT", "phase must not end before it starts")
	}
	p := Phase{Type: phaseType}
	if from != nil {
		d := shared.DateOf(*from)
		p.DateFrom = &d
	}
	if to != nil {
		d := shared.DateOf(*to)
		p.DateTo = &d
	}
	return p, nil
}

// HasStarted returns true if day is on or after the start of the phase
func (p Phase) HasStarted(day time.Time) bool {
	if p.DateFrom == nil {
		return true
	}
	return !shared.DateOf(day).Before(*p.DateFrom)
}

// HasEnded returns true if day is after the last day of the phase
func (p Phase) HasEnded(day time.Time) bool {
	if p.DateTo == nil {
		return false
	}
	return shared.DateOf(day).After(*p.DateTo)
}

// IsActual returns true if day falls inside the phase
func (p Phase) IsActual(day time.Time) bool {
	return p.HasStarted(day) && !p.HasEnded(day)
}

// Days returns the number of days of a bounded phase, 0 when open-ended
func (p Phase) Days() int {
	if p.DateFrom == nil || p.DateTo == nil {
		return 0
	}
	return shared.DaysBetween(*p.DateFrom, *p.DateTo) + 1
}
