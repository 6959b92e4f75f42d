package gpx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">`

func TestParse_Track(t *testing.T) {
	data := header + `
<trk><name>Ride</name><trkseg>
  <trkpt lat="50.0" lon="14.0"><time>2026-05-04T07:00:00Z</time></trkpt>
  <trkpt lat="50.01" lon="14.0"><time>2026-05-04T07:02:00Z</time></trkpt>
  <trkpt lat="50.02" lon="14.0"><time>2026-05-04T07:05:30Z</time></trkpt>
</trkseg></trk>
</gpx>`

	track, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 3, track.Points)
	assert.InDelta(t, 2.22, track.Distance.InexactFloat64(), 0.02)
	assert.Equal(t, 330*time.Second, track.Duration)
	assert.Equal(t, 330, track.DurationSeconds())
	require.NotNil(t, track.StartTime)
	assert.Equal(t, time.Date(2026, 5, 4, 7, 0, 0, 0, time.UTC), *track.StartTime)
}

func TestParse_RouteWithoutTimes(t *testing.T) {
	data := header + `
<rte>
  <rtept lat="49.19" lon="16.60"></rtept>
  <rtept lat="49.20" lon="16.60"></rtept>
</rte>
</gpx>`

	track, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2, track.Points)
	assert.InDelta(t, 1.11, track.Distance.InexactFloat64(), 0.02)
	assert.Zero(t, track.Duration)
	assert.Nil(t, track.StartTime)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not xml", []byte("hello"), ErrInvalidFile},
		{"no points", []byte(header + `<trk><trkseg></trkseg></trk></gpx>`), ErrEmptyTrack},
		{"too big", []byte(header + strings.Repeat(" ", MaxFileSize)), ErrFileTooBig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_RouteMeasuredLikeTrack(t *testing.T) {
	coords := [][2]string{{"50.0755", "14.4378"}, {"50.0810", "14.4280"}, {"50.0880", "14.4205"}, {"50.0935", "14.4510"}}
	var trk, rte strings.Builder
	for _, c := range coords {
		trk.WriteString(`<trkpt lat="` + c[0] + `" lon="` + c[1] + `"></trkpt>`)
		rte.WriteString(`<rtept lat="` + c[0] + `" lon="` + c[1] + `"></rtept>`)
	}

	asTrack, err := Parse([]byte(header + `<trk><trkseg>` + trk.String() + `</trkseg></trk></gpx>`))
	require.NoError(t, err)
	asRoute, err := Parse([]byte(header + `<rte>` + rte.String() + `</rte></gpx>`))
	require.NoError(t, err)

	assert.True(t, asTrack.Distance.IsPositive())
	assert.True(t, asTrack.Distance.Equal(asRoute.Distance), "track %s km, route %s km", asTrack.Distance, asRoute.Distance)

	both, err := Parse([]byte(header + `<trk><trkseg>` + trk.String() + `</trkseg></trk><rte>` + rte.String() + `</rte></gpx>`))
	require.NoError(t, err)
	assert.Equal(t, 8, both.Points)
	assert.InDelta(t, 2*asTrack.Distance.InexactFloat64(), both.Distance.InexactFloat64(), 0.011)
}
