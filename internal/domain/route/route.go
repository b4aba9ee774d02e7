// Package route holds the SavedRoute aggregate: a generated route a rider
// chose to keep.
package route

import (
	"time"

	"github.com/google/uuid"

	"github.com/motomuse/service-routes/internal/domain"
	"github.com/motomuse/service-routes/internal/pipeline"
)

// SavedRoute is the aggregate root for the saved-routes domain.
type SavedRoute struct {
	id          uuid.UUID
	riderID     uuid.UUID
	name        string
	prefs       pipeline.Preferences
	polyline    string
	returnLine  string
	distanceKm  float64
	durationMin int
	narrative   string
	passed      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewSavedRoute creates a SavedRoute from a pipeline outcome.
func NewSavedRoute(riderID uuid.UUID, name string, prefs pipeline.Preferences, outcome *pipeline.Outcome) (*SavedRoute, error) {
	if riderID == uuid.Nil {
		return nil, domain.NewValidationError("rider ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("route name is required")
	}
	if outcome == nil || outcome.Route == nil {
		return nil, domain.NewValidationError("a generated route is required")
	}

	var returnLine string
	distanceKm := outcome.Route.DistanceKm
	durationMin := outcome.Route.DurationMin
	if outcome.ReturnRoute != nil {
		returnLine = outcome.ReturnRoute.Polyline
		distanceKm += outcome.ReturnRoute.DistanceKm
		durationMin += outcome.ReturnRoute.DurationMin
	}

	now := time.Now().UTC()
	return &SavedRoute{
		id:          uuid.New(),
		riderID:     riderID,
		name:        name,
		prefs:       prefs,
		polyline:    outcome.Route.Polyline,
		returnLine:  returnLine,
		distanceKm:  distanceKm,
		durationMin: durationMin,
		narrative:   outcome.Narrative,
		passed:      outcome.Passed,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a SavedRoute from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	riderID uuid.UUID,
	name string,
	prefs pipeline.Preferences,
	polyline string,
	returnLine string,
	distanceKm float64,
	durationMin int,
	narrative string,
	passed bool,
	createdAt time.Time,
	updatedAt time.Time,
) *SavedRoute {
	return &SavedRoute{
		id:          id,
		riderID:     riderID,
		name:        name,
		prefs:       prefs,
		polyline:    polyline,
		returnLine:  returnLine,
		distanceKm:  distanceKm,
		durationMin: durationMin,
		narrative:   narrative,
		passed:      passed,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the route's unique identifier.
func (r *SavedRoute) ID() uuid.UUID { return r.id }

// RiderID returns the owning rider's user ID.
func (r *SavedRoute) RiderID() uuid.UUID { return r.riderID }

// Name returns the rider-given route name.
func (r *SavedRoute) Name() string { return r.name }

// Prefs returns the preferences the route was generated from.
func (r *SavedRoute) Prefs() pipeline.Preferences { return r.prefs }

// Polyline returns the encoded outbound polyline.
func (r *SavedRoute) Polyline() string { return r.polyline }

// ReturnPolyline returns the encoded return-leg polyline, or "" for
// single-leg shapes.
func (r *SavedRoute) ReturnPolyline() string { return r.returnLine }

// DistanceKm returns the total ride distance across both legs.
func (r *SavedRoute) DistanceKm() float64 { return r.distanceKm }

// DurationMin returns the total estimated riding time in minutes.
func (r *SavedRoute) DurationMin() int { return r.durationMin }

// Narrative returns the generated route description.
func (r *SavedRoute) Narrative() string { return r.narrative }

// Passed reports whether the route passed all quality checks.
func (r *SavedRoute) Passed() bool { return r.passed }

// CreatedAt returns the creation timestamp.
func (r *SavedRoute) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *SavedRoute) UpdatedAt() time.Time { return r.updatedAt }

// Rename changes the rider-given name.
func (r *SavedRoute) Rename(name string) error {
	if name == "" {
		return domain.NewValidationError("route name is required")
	}
	r.name = name
	r.updatedAt = time.Now().UTC()
	return nil
}
