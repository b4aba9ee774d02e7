package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

// spurRoute builds a route that runs east, detours 1.5 km up a dead-end
// side road and back, then continues east. Returns the route and the spur
// tip coordinate.
func spurRoute(t *testing.T) (*RouteResult, geo.Point) {
	t.Helper()
	const lngStep = 0.00162 // ~111 m at this latitude

	var points []geo.Point
	for i := 0; i <= 18; i++ {
		points = append(points, geo.Point{Lat: 52.0, Lng: 5.0 + float64(i)*lngStep})
	}
	junctionLng := 5.0 + 18*lngStep
	for i := 1; i <= 13; i++ {
		points = append(points, geo.Point{Lat: 52.0 + float64(i)*0.001, Lng: junctionLng})
	}
	for i := 12; i >= 0; i-- {
		points = append(points, geo.Point{Lat: 52.0 + float64(i)*0.001, Lng: junctionLng})
	}
	for i := 19; i <= 36; i++ {
		points = append(points, geo.Point{Lat: 52.0, Lng: 5.0 + float64(i)*lngStep})
	}

	tip := geo.Point{Lat: 52.013, Lng: junctionLng}
	return &RouteResult{Polyline: geo.EncodePolyline(points)}, tip
}

func TestSnapperRepair_RelocatesSpurWaypoint(t *testing.T) {
	s := NewSnapper(DefaultConfig(), zap.NewNop())
	route, tip := spurRoute(t)

	repaired, moved := s.Repair(route, []geo.Point{tip})

	require.True(t, moved)
	require.Len(t, repaired, 1)
	assert.NotEqual(t, tip, repaired[0])
	// The relocated waypoint sits back on the through-road, not up the spur.
	assert.InDelta(t, 52.0, repaired[0].Lat, 0.0005)
}

func TestSnapperRepair_LeavesThroughWaypointAlone(t *testing.T) {
	s := NewSnapper(DefaultConfig(), zap.NewNop())
	route, _ := spurRoute(t)

	// A waypoint on the straight eastbound stretch well before the spur.
	onRoad := geo.Point{Lat: 52.0, Lng: 5.0 + 5*0.00162}
	repaired, moved := s.Repair(route, []geo.Point{onRoad})

	assert.False(t, moved)
	assert.Equal(t, onRoad, repaired[0])
}

func TestSnapperRepair_ShortRoute(t *testing.T) {
	s := NewSnapper(DefaultConfig(), zap.NewNop())
	route := &RouteResult{Polyline: geo.EncodePolyline([]geo.Point{
		{Lat: 52.0, Lng: 5.0},
		{Lat: 52.001, Lng: 5.0},
	})}

	wps := []geo.Point{{Lat: 52.0005, Lng: 5.0}}
	repaired, moved := s.Repair(route, wps)

	assert.False(t, moved)
	assert.Equal(t, wps, repaired)
}
