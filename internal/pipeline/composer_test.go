package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

func newTestComposer(p Planner, b Builder, v RouteValidator) *Composer {
	cfg := DefaultConfig()
	orch := NewOrchestrator(p, b, v, &stubSnapper{}, cfg, zap.NewNop())
	return NewComposer(orch, cfg, zap.NewNop())
}

func TestGenerate_Loop(t *testing.T) {
	planner := &stubPlanner{}
	composer := newTestComposer(planner, &stubBuilder{},
		&stubValidator{verdicts: [][]Issue{nil}})

	prefs := Preferences{
		Shape:      ShapeLoop,
		DistanceKm: 150,
		Start:      geo.Point{Lat: 52.0, Lng: 5.0},
	}

	out, err := composer.Generate(context.Background(), prefs, "Flevoland")

	require.NoError(t, err)
	assert.True(t, out.Passed)
	assert.NotNil(t, out.Route)
	assert.Nil(t, out.ReturnRoute)
	assert.Empty(t, out.Warning)
	assert.Equal(t, "Flevoland", planner.lastPlan.Region)
}

func TestGenerate_ThereAndBackSeedsReturnLeg(t *testing.T) {
	var planRequests []PlanRequest
	planner := &stubPlanner{}
	planner.proposeFn = func(req PlanRequest) (*PlanResponse, error) {
		planRequests = append(planRequests, req)
		return &PlanResponse{Waypoints: testWaypoints, Prompt: "plan prompt"}, nil
	}
	composer := newTestComposer(planner, &stubBuilder{},
		&stubValidator{verdicts: [][]Issue{nil}})

	dest := geo.Point{Lat: 51.5, Lng: 4.5}
	prefs := Preferences{
		Shape:           ShapeThereAndBack,
		DistanceKm:      200,
		Start:           geo.Point{Lat: 52.0, Lng: 5.0},
		Destination:     &dest,
		DestinationName: "Breda",
	}

	out, err := composer.Generate(context.Background(), prefs, "Utrecht")

	require.NoError(t, err)
	require.Len(t, planRequests, 2)

	// Outbound runs from start with no negative context.
	assert.Equal(t, prefs.Start, planRequests[0].Start)
	assert.Empty(t, planRequests[0].AvoidSummary)

	// The return leg starts at the destination and is seeded with the
	// outbound's roads to bias it onto different ones.
	assert.Equal(t, dest, planRequests[1].Start)
	assert.NotEmpty(t, planRequests[1].AvoidSummary)
	assert.Equal(t, out.OutboundSummary, planRequests[1].AvoidSummary)

	assert.True(t, out.Passed)
	require.NotNil(t, out.ReturnRoute)
	assert.True(t, out.ReturnPassed)
	// Both legs' audit entries are merged.
	assert.Len(t, out.Attempts, 2)
}

func TestGenerate_ThereAndBackRequiresDestination(t *testing.T) {
	composer := newTestComposer(&stubPlanner{}, &stubBuilder{},
		&stubValidator{verdicts: [][]Issue{nil}})

	prefs := Preferences{
		Shape:      ShapeThereAndBack,
		DistanceKm: 200,
		Start:      geo.Point{Lat: 52.0, Lng: 5.0},
	}

	_, err := composer.Generate(context.Background(), prefs, "Utrecht")
	assert.Error(t, err)
}

func TestGenerate_BestEffortCarriesWarning(t *testing.T) {
	validator := &stubValidator{verdicts: [][]Issue{
		{{Kind: IssueOverlap, Detail: "doubles back"}},
	}}
	composer := newTestComposer(&stubPlanner{}, &stubBuilder{}, validator)

	prefs := Preferences{
		Shape:      ShapeLoop,
		DistanceKm: 150,
		Start:      geo.Point{Lat: 52.0, Lng: 5.0},
	}

	out, err := composer.Generate(context.Background(), prefs, "Flevoland")

	require.NoError(t, err)
	assert.False(t, out.Passed)
	assert.NotNil(t, out.Route, "best effort still returns a route")
	assert.NotEmpty(t, out.Warning)
	assert.Len(t, out.Attempts, DefaultConfig().MaxAttempts)
}

func TestGenerate_OneWayWithDestination(t *testing.T) {
	builder := &stubBuilder{}
	var built []BuildRequest
	builder.buildFn = func(req BuildRequest) (*RouteResult, error) {
		built = append(built, req)
		return &RouteResult{Polyline: "stub", Waypoints: req.Waypoints}, nil
	}
	composer := newTestComposer(&stubPlanner{}, builder,
		&stubValidator{verdicts: [][]Issue{nil}})

	dest := geo.Point{Lat: 51.9, Lng: 4.4}
	prefs := Preferences{
		Shape:       ShapeOneWay,
		DistanceKm:  120,
		Start:       geo.Point{Lat: 52.0, Lng: 5.0},
		Destination: &dest,
	}

	_, err := composer.Generate(context.Background(), prefs, "Utrecht")

	require.NoError(t, err)
	require.NotEmpty(t, built)
	assert.Equal(t, dest, built[0].End)
}

func TestMidpointOnPath(t *testing.T) {
	points := []geo.Point{
		{Lat: 52.00, Lng: 5.0},
		{Lat: 52.01, Lng: 5.0},
		{Lat: 52.02, Lng: 5.0},
		{Lat: 52.03, Lng: 5.0},
		{Lat: 52.04, Lng: 5.0},
	}

	mid, ok := midpointOnPath(points)
	require.True(t, ok)
	assert.InDelta(t, 52.02, mid.Lat, 0.011)

	_, ok = midpointOnPath(nil)
	assert.False(t, ok)
}
