package trip

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
)

// CalendarDay is one day of the rides calendar
type CalendarDay struct {
	Date     time.Time `json:"date"`
	Editable bool      `json:"editable"`
	Trips    []Trip    `json:"trips"`
}

// BuildCalendar lays trips out over the days from..to (inclusive).
// editable decides per day whether the participant may still change it.
func BuildCalendar(from, to time.Time, trips []Trip, editable func(day time.Time) bool) []CalendarDay {
	from, to = shared.DateOf(from), shared.DateOf(to)
	byDay := make(map[time.Time][]Trip, len(trips))
	for _, t := range trips {
		d := shared.DateOf(t.Date)
		byDay[d] = append(byDay[d], t)
	}
	days := make([]CalendarDay, 0, shared.DaysBetween(from, to)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, CalendarDay{
			Date:     d,
			Editable: editable(d),
			Trips:    byDay[d],
		})
	}
	return days
}
