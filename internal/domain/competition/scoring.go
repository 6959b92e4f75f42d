package competition

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/shopspring/decimal"
)

// Window is the closed date range results are computed over plus the day
// the computation runs on
type Window struct {
	From  time.Time
	To    time.Time
	Today time.Time
}

// Contains reports whether day is inside the window
func (w Window) Contains(day time.Time) bool {
	day = shared.DateOf(day)
	return !day.Before(shared.DateOf(w.From)) && !day.After(shared.DateOf(w.To))
}

// TotalDays is the number of days of the window
func (w Window) TotalDays() int {
	return shared.DaysBetween(w.From, w.To) + 1
}

// ElapsedDays is the number of window days up to and including today
func (w Window) ElapsedDays() int {
	today := shared.DateOf(w.Today)
	if today.Before(shared.DateOf(w.From)) {
		return 0
	}
	if today.After(shared.DateOf(w.To)) {
		return w.TotalDays()
	}
	return shared.DaysBetween(w.From, today) + 1
}

// Rules are the campaign settings used by scoring
type Rules struct {
	MinimumRidesBase int
	TripPlusDistance decimal.Decimal
}

// MemberTrips are the trips of one admitted participant
type MemberTrips struct {
	Trips []trip.Trip
}

// RideCounts are the frequency figures of one participant
type RideCounts struct {
	EcoRides     int
	WorkingRides int
}

// CountRides counts commute trips inside the window. Eco trips are rides;
// every trip whose mode counts is a working ride.
func CountRides(trips []trip.Trip, w Window) RideCounts {
	var rc RideCounts
	for i := range trips {
		t := &trips[i]
		if !t.Direction.IsCommute() || !w.Contains(t.Date) {
			continue
		}
		if t.CommuteMode.DoesCount() {
			rc.WorkingRides++
		}
		if t.CommuteMode.Eco() {
			rc.EcoRides++
		}
	}
	return rc
}

// MinimumRides is the proportional minimum of working rides for the part of
// the window that already passed
func MinimumRides(rules Rules, w Window) int {
	total := w.TotalDays()
	if total <= 0 || rules.MinimumRidesBase <= 0 {
		return 0
	}
	return rules.MinimumRidesBase * w.ElapsedDays() / total
}

// FrequencyScore is rides over working rides, where the divisor is raised to
// the proportional minimum for participants who commuted less
func FrequencyScore(trips []trip.Trip, rules Rules, w Window) Score {
	rc := CountRides(trips, w)
	divisor := rc.WorkingRides
	if minimum := MinimumRides(rules, w); divisor < minimum {
		divisor = minimum
	}
	return Score{
		Divident: decimal.NewFromInt(int64(rc.EcoRides)),
		Divisor:  decimal.NewFromInt(int64(divisor)),
	}
}

// Distance sums the counted distance of trips inside the window. A positive
// TripPlusDistance caps every single trip.
func Distance(trips []trip.Trip, modes func(trip.CommuteMode) bool, rules Rules, w Window) decimal.Decimal {
	total := decimal.Zero
	for i := range trips {
		t := &trips[i]
		if !w.Contains(t.Date) || !modes(t.CommuteMode) {
			continue
		}
		d := t.Distance
		if rules.TripPlusDistance.IsPositive() && d.GreaterThan(rules.TripPlusDistance) {
			d = rules.TripPlusDistance
		}
		total = total.Add(d)
	}
	return total
}

// Calculate computes the score of a competitor from the trips and
// questionnaire points of its admitted members. For single_user and liberos
// competitions members holds exactly one participant.
func (c *Competition) Calculate(members []MemberTrips, points []decimal.Decimal, rules Rules, w Window) Score {
	switch c.Type {
	case TypeLength:
		total := decimal.Zero
		for _, m := range members {
			total = total.Add(Distance(m.Trips, c.CountsMode, rules, w))
		}
		divisor := decimal.NewFromInt(1)
		if c.CompetitorType == CompetitorTeam || c.CompetitorType == CompetitorCompany {
			divisor = decimal.NewFromInt(int64(len(members)))
		}
		return Score{Divident: total, Divisor: divisor}
	case TypeFrequency:
		score := Score{Divident: decimal.Zero, Divisor: decimal.Zero}
		for _, m := range members {
			score = score.Add(FrequencyScore(m.Trips, rules, w))
		}
		return score
	case TypeQuestionnaire:
		total := decimal.Zero
		for _, p := range points {
			total = total.Add(p)
		}
		return Score{Divident: total, Divisor: decimal.NewFromInt(1)}
	default:
		return Score{Divident: decimal.Zero, Divisor: decimal.NewFromInt(1)}
	}
}
