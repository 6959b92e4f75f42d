// Package gpx reads recorded rides from GPX files.
package gpx

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	gpxgo "github.com/tkrajina/gpxgo/gpx"
)

// MaxFileSize is the largest accepted upload
const MaxFileSize = 10 << 20

// Errors returned by Parse
var (
	ErrInvalidFile = errors.New("gpx: invalid file")
	ErrEmptyTrack  = errors.New("gpx: file contains no track points")
	ErrFileTooBig  = errors.New("gpx: file is too big")
)

// Track is the summary of a recorded ride
type Track struct {
	// Distance is the 2D length in kilometers rounded to two places
	Distance decimal.Decimal
	// Duration between the first and the last timestamped point
	Duration  time.Duration
	StartTime *time.Time
	EndTime   *time.Time
	Points    int
}

// DurationSeconds returns the duration in whole seconds
func (t *Track) DurationSeconds() int {
	return int(t.Duration / time.Second)
}

// Parse reads a GPX document and summarizes its tracks and routes
func Parse(data []byte) (*Track, error) {
	if len(data) > MaxFileSize {
		return nil, ErrFileTooBig
	}
	g, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	points := g.GetTrackPointsNo()
	meters := g.Length2D()
	for _, route := range g.Routes {
		points += len(route.Points)
		meters += routeLength(route)
	}
	if points == 0 {
		return nil, ErrEmptyTrack
	}

	track := &Track{
		Distance: decimal.NewFromFloat(meters / 1000).Round(2),
		Points:   points,
	}
	if bounds := g.TimeBounds(); !bounds.StartTime.IsZero() && !bounds.EndTime.IsZero() {
		start, end := bounds.StartTime.UTC(), bounds.EndTime.UTC()
		track.StartTime = &start
		track.EndTime = &end
		track.Duration = end.Sub(start)
	}
	return track, nil
}

// routeLength measures a route the way gpxgo measures track segments
func routeLength(route gpxgo.GPXRoute) float64 {
	seg := gpxgo.GPXTrackSegment{Points: route.Points}
	return seg.Length2D()
}
