package route

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motomuse/service-routes/internal/domain"
	"github.com/motomuse/service-routes/internal/geo"
	"github.com/motomuse/service-routes/internal/pipeline"
)

func testOutcome() *pipeline.Outcome {
	return &pipeline.Outcome{
		Route: &pipeline.RouteResult{
			Polyline:    "abc",
			DistanceKm:  150,
			DurationMin: 180,
		},
		Passed:    true,
		Narrative: "A quiet loop through the polders.",
	}
}

func testPrefs() pipeline.Preferences {
	return pipeline.Preferences{
		Shape:      pipeline.ShapeLoop,
		DistanceKm: 150,
		Start:      geo.Point{Lat: 52.0, Lng: 5.0},
	}
}

func TestNewSavedRoute(t *testing.T) {
	riderID := uuid.New()

	rt, err := NewSavedRoute(riderID, "Polder loop", testPrefs(), testOutcome())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rt.ID())
	assert.Equal(t, riderID, rt.RiderID())
	assert.Equal(t, "Polder loop", rt.Name())
	assert.Equal(t, "abc", rt.Polyline())
	assert.Empty(t, rt.ReturnPolyline())
	assert.Equal(t, 150.0, rt.DistanceKm())
	assert.Equal(t, 180, rt.DurationMin())
	assert.True(t, rt.Passed())
	assert.Equal(t, "A quiet loop through the polders.", rt.Narrative())
	assert.False(t, rt.CreatedAt().IsZero())
}

func TestNewSavedRoute_SumsBothLegs(t *testing.T) {
	outcome := testOutcome()
	outcome.ReturnRoute = &pipeline.RouteResult{
		Polyline:    "def",
		DistanceKm:  140,
		DurationMin: 170,
	}

	rt, err := NewSavedRoute(uuid.New(), "Coast and back", testPrefs(), outcome)
	require.NoError(t, err)

	assert.Equal(t, "abc", rt.Polyline())
	assert.Equal(t, "def", rt.ReturnPolyline())
	assert.Equal(t, 290.0, rt.DistanceKm())
	assert.Equal(t, 350, rt.DurationMin())
}

func TestNewSavedRoute_Validation(t *testing.T) {
	cases := []struct {
		name    string
		riderID uuid.UUID
		rtName  string
		outcome *pipeline.Outcome
	}{
		{"missing rider", uuid.Nil, "x", testOutcome()},
		{"missing name", uuid.New(), "", testOutcome()},
		{"nil outcome", uuid.New(), "x", nil},
		{"outcome without route", uuid.New(), "x", &pipeline.Outcome{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSavedRoute(tc.riderID, tc.rtName, testPrefs(), tc.outcome)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestRename(t *testing.T) {
	rt, err := NewSavedRoute(uuid.New(), "Old name", testPrefs(), testOutcome())
	require.NoError(t, err)
	before := rt.UpdatedAt()

	time.Sleep(time.Millisecond)
	require.NoError(t, rt.Rename("New name"))

	assert.Equal(t, "New name", rt.Name())
	assert.True(t, rt.UpdatedAt().After(before))

	err = rt.Rename("")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "New name", rt.Name())
}

func TestReconstruct(t *testing.T) {
	id := uuid.New()
	riderID := uuid.New()
	created := time.Now().UTC().Add(-time.Hour)
	updated := time.Now().UTC()

	rt := Reconstruct(id, riderID, "Restored", testPrefs(),
		"abc", "def", 290, 350, "narrative", false, created, updated)

	assert.Equal(t, id, rt.ID())
	assert.Equal(t, riderID, rt.RiderID())
	assert.Equal(t, "Restored", rt.Name())
	assert.False(t, rt.Passed())
	assert.Equal(t, created, rt.CreatedAt())
	assert.Equal(t, updated, rt.UpdatedAt())
}
