package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/motomuse/service-routes/internal/geo"
)

// ErrNoRoute is returned by a Builder when the directions provider cannot
// connect the requested waypoints.
var ErrNoRoute = errors.New("no feasible route for the requested waypoints")

// ParseError reports a planner reply that did not resolve to valid
// waypoint coordinates.
type ParseError struct {
	Reason string
	Raw    string
	Prompt string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("planner reply unusable: %s", e.Reason)
}

// PlanRequest asks the planner for a fresh set of waypoints.
type PlanRequest struct {
	Prefs         Preferences
	Start         geo.Point
	Region        string
	WaypointCount int

	// Negative context. PreviousIssues and RouteSummary describe a prior
	// failed attempt; AvoidSummary carries the other leg's roads and towns
	// for there-and-back rides.
	PreviousIssues []string
	RouteSummary   string
	AvoidSummary   string
}

// FixRequest asks the planner to adjust existing waypoints in place.
type FixRequest struct {
	Prefs        Preferences
	Waypoints    []geo.Point
	Issues       []string
	RouteSummary string
}

// PlanResponse carries the proposed waypoints together with the exact
// prompt that produced them, for the attempt audit trail.
type PlanResponse struct {
	Waypoints []geo.Point
	Prompt    string
}

// NarrativeRequest asks the planner for a rider-facing route description.
type NarrativeRequest struct {
	Prefs         Preferences
	DistanceKm    float64
	DurationMin   int
	StartAddress  string
	WaypointCount int
}

// Planner is the route-proposal oracle. Its replies are unreliable by
// contract and must be schema-validated; a reply that does not resolve to
// coordinates surfaces as *ParseError.
type Planner interface {
	Propose(ctx context.Context, req PlanRequest) (*PlanResponse, error)
	Fix(ctx context.Context, req FixRequest) (*PlanResponse, error)
	Narrative(ctx context.Context, req NarrativeRequest) (string, error)
}

// BuildRequest submits waypoints to the road-network provider. Routing
// constraints (no motorways, no tolls) are a fixed product rule applied by
// the implementation, not a parameter.
type BuildRequest struct {
	Start     geo.Point
	End       geo.Point
	Waypoints []geo.Point
}

// Builder turns waypoints into a navigable route, or ErrNoRoute.
type Builder interface {
	Build(ctx context.Context, req BuildRequest) (*RouteResult, error)
}

// RouteValidator runs the geometric quality checks against a built route.
type RouteValidator interface {
	Validate(route *RouteResult) []Issue
}

// WaypointRepairer is the pre-validation geometric repair step. It returns
// the (possibly relocated) waypoints and whether any waypoint moved.
type WaypointRepairer interface {
	Repair(route *RouteResult, waypoints []geo.Point) ([]geo.Point, bool)
}

// Imagery resolves street-level images. Coverage is the cheap existence
// check to call before spending a paid image request.
type Imagery interface {
	Coverage(ctx context.Context, p geo.Point) (bool, error)
	ImageURL(p geo.Point, headingDeg float64) string
}

// VenueFinder is the optional points-of-interest provider, used only when
// the rider asked for a meal stop.
type VenueFinder interface {
	FindVenues(ctx context.Context, center geo.Point, cuisine string) ([]Venue, error)
}
