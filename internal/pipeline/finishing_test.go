package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

type stubImagery struct {
	covered    bool
	coverErr   error
	coverCalls int
}

func (s *stubImagery) Coverage(_ context.Context, _ geo.Point) (bool, error) {
	s.coverCalls++
	return s.covered, s.coverErr
}

func (s *stubImagery) ImageURL(p geo.Point, headingDeg float64) string {
	return fmt.Sprintf("https://img.example/%f,%f@%f", p.Lat, p.Lng, headingDeg)
}

type stubVenues struct {
	venues []Venue
	err    error
	calls  int
}

func (s *stubVenues) FindVenues(_ context.Context, _ geo.Point, _ string) ([]Venue, error) {
	s.calls++
	return s.venues, s.err
}

type failingNarrativePlanner struct {
	stubPlanner
}

func (f *failingNarrativePlanner) Narrative(_ context.Context, _ NarrativeRequest) (string, error) {
	return "", errors.New("oracle unavailable")
}

func decoratedRoute() *RouteResult {
	var points []geo.Point
	for i := 0; i <= 30; i++ {
		points = append(points, geo.Point{Lat: 52.0 + float64(i)*0.001, Lng: 5.0})
	}
	return &RouteResult{
		Polyline:     geo.EncodePolyline(points),
		DistanceKm:   120,
		DurationMin:  150,
		StartAddress: "Almere, Netherlands",
		Waypoints:    testWaypoints,
	}
}

func TestDecorate_AddsNarrativeAndImages(t *testing.T) {
	imagery := &stubImagery{covered: true}
	f := NewFinisher(&stubPlanner{}, imagery, &stubVenues{}, DefaultConfig(), zap.NewNop())

	outcome := &Outcome{Route: decoratedRoute(), Passed: true}
	f.Decorate(context.Background(), outcome, Preferences{Shape: ShapeLoop})

	assert.Equal(t, "a fine ride", outcome.Narrative)
	require.Len(t, outcome.Images, DefaultConfig().ImageCount)
	for _, img := range outcome.Images {
		assert.NotEmpty(t, img.URL)
	}
	assert.Empty(t, outcome.Venues, "no venues unless a meal stop was requested")
}

func TestDecorate_NarrativeFailureIsNonFatal(t *testing.T) {
	f := NewFinisher(&failingNarrativePlanner{}, &stubImagery{covered: true},
		nil, DefaultConfig(), zap.NewNop())

	outcome := &Outcome{Route: decoratedRoute(), Passed: true}
	f.Decorate(context.Background(), outcome, Preferences{Shape: ShapeLoop})

	assert.Empty(t, outcome.Narrative)
	assert.NotEmpty(t, outcome.Images, "imagery still resolves when the narrative fails")
}

func TestDecorate_NoImageryCoverage(t *testing.T) {
	imagery := &stubImagery{covered: false}
	f := NewFinisher(&stubPlanner{}, imagery, nil, DefaultConfig(), zap.NewNop())

	outcome := &Outcome{Route: decoratedRoute(), Passed: true}
	f.Decorate(context.Background(), outcome, Preferences{Shape: ShapeLoop})

	assert.Empty(t, outcome.Images)
	assert.Greater(t, imagery.coverCalls, 0)
}

func TestDecorate_MealStopVenues(t *testing.T) {
	venues := &stubVenues{venues: []Venue{
		{Name: "De Wegrestaurant", Location: geo.Point{Lat: 52.01, Lng: 5.0}},
	}}
	f := NewFinisher(&stubPlanner{}, &stubImagery{covered: true}, venues,
		DefaultConfig(), zap.NewNop())

	outcome := &Outcome{Route: decoratedRoute(), Passed: true}
	f.Decorate(context.Background(), outcome, Preferences{
		Shape:     ShapeLoop,
		LunchStop: true,
		Cuisine:   "pancakes",
	})

	assert.Equal(t, 1, venues.calls)
	require.Len(t, outcome.Venues, 1)
	assert.Equal(t, "De Wegrestaurant", outcome.Venues[0].Name)
}

func TestDecorate_VenueFailureIsNonFatal(t *testing.T) {
	venues := &stubVenues{err: errors.New("quota exceeded")}
	f := NewFinisher(&stubPlanner{}, &stubImagery{covered: true}, venues,
		DefaultConfig(), zap.NewNop())

	outcome := &Outcome{Route: decoratedRoute(), Passed: true}
	f.Decorate(context.Background(), outcome, Preferences{Shape: ShapeLoop, LunchStop: true})

	assert.Empty(t, outcome.Venues)
}

func TestDecorate_NilRouteIsIgnored(t *testing.T) {
	f := NewFinisher(&stubPlanner{}, &stubImagery{}, nil, DefaultConfig(), zap.NewNop())

	outcome := &Outcome{}
	f.Decorate(context.Background(), outcome, Preferences{})

	assert.Empty(t, outcome.Narrative)
	assert.Empty(t, outcome.Images)
}
