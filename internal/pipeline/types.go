// Package pipeline implements the route generation and validation loop:
// planner-proposed waypoints are built into a navigable route, repaired,
// validated against geometric quality rules and retried with escalating
// prompts until the route passes or the attempt budget runs out.
package pipeline

import "github.com/motomuse/service-routes/internal/geo"

// RideShape selects how the route starts and ends.
type RideShape string

const (
	ShapeLoop         RideShape = "loop"
	ShapeOneWay       RideShape = "one_way"
	ShapeThereAndBack RideShape = "there_and_back"
)

// IsValid reports whether the shape is one of the supported ride shapes.
func (s RideShape) IsValid() bool {
	switch s {
	case ShapeLoop, ShapeOneWay, ShapeThereAndBack:
		return true
	}
	return false
}

// Preferences is the immutable input to a single pipeline run.
type Preferences struct {
	Shape           RideShape  `json:"shape"`
	DistanceKm      int        `json:"distance_km"`
	Curviness       int        `json:"curviness"`
	Scenery         string     `json:"scenery"`
	Start           geo.Point  `json:"start"`
	StartName       string     `json:"start_name,omitempty"`
	Destination     *geo.Point `json:"destination,omitempty"`
	DestinationName string     `json:"destination_name,omitempty"`
	AreaCenter      *geo.Point `json:"area_center,omitempty"`
	AreaRadiusKm    float64    `json:"area_radius_km,omitempty"`
	AreaName        string     `json:"area_name,omitempty"`
	LunchStop       bool       `json:"lunch_stop,omitempty"`
	Cuisine         string     `json:"cuisine,omitempty"`
}

// RouteStep is one navigation step of a built route.
type RouteStep struct {
	DistanceM   int       `json:"distance_m"`
	DurationS   int       `json:"duration_s"`
	Instruction string    `json:"instruction"`
	Start       geo.Point `json:"start"`
	End         geo.Point `json:"end"`
	Polyline    string    `json:"polyline,omitempty"`
}

// RouteResult is one built route. A fresh result is produced on every
// attempt; results are superseded, never mutated in place.
type RouteResult struct {
	Polyline     string      `json:"polyline"`
	DistanceKm   float64     `json:"distance_km"`
	DurationMin  int         `json:"duration_min"`
	Steps        []RouteStep `json:"steps"`
	Waypoints    []geo.Point `json:"waypoints"`
	StartAddress string      `json:"start_address,omitempty"`
	EndAddress   string      `json:"end_address,omitempty"`
}

// Points decodes the route polyline.
func (r *RouteResult) Points() []geo.Point {
	return geo.DecodePolyline(r.Polyline)
}

// IssueKind names one of the validation checks.
type IssueKind string

const (
	IssueHighwayFraction IssueKind = "highway_fraction"
	IssueUTurn           IssueKind = "u_turn"
	IssueOverlap         IssueKind = "polyline_overlap"
	IssueDeadEndSpur     IssueKind = "dead_end_spur"
	IssueUrbanDensity    IssueKind = "urban_density"

	// IssueNoRoute is not a geometric check: the directions provider could
	// not connect the waypoints at all. It always forces full regeneration.
	IssueNoRoute IssueKind = "no_route"

	// IssuePlannerParse marks an oracle reply that did not resolve to
	// usable waypoints; the attempt is consumed like a validation failure.
	IssuePlannerParse IssueKind = "planner_parse"
)

// Issue is one triggered validation check with the value measured and the
// threshold it breached.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Measured float64   `json:"measured"`
	Limit    float64   `json:"limit"`
	Detail   string    `json:"detail"`
}

// PromptKind records which escalation tier was sent to the planner.
type PromptKind string

const (
	PromptInitial    PromptKind = "initial"
	PromptFix        PromptKind = "fix"
	PromptRegenerate PromptKind = "regenerate"
)

// Attempt is one entry of the audit trail for a pipeline run. Attempts are
// append-only: once recorded they are never rewritten.
type Attempt struct {
	Index      int        `json:"index"`
	Issues     []Issue    `json:"issues,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Prompt     PromptKind `json:"prompt"`
	PromptText string     `json:"prompt_text,omitempty"`
}

// Image is one resolved street-level image along the route.
type Image struct {
	URL        string    `json:"url"`
	Location   geo.Point `json:"location"`
	HeadingDeg float64   `json:"heading_deg"`
}

// Venue is a candidate meal stop from the points-of-interest provider.
type Venue struct {
	Name     string    `json:"name"`
	Location geo.Point `json:"location"`
	Address  string    `json:"address,omitempty"`
	Rating   float32   `json:"rating,omitempty"`
}

// LegOutcome is the result of running the retry loop for one leg.
type LegOutcome struct {
	Route    *RouteResult `json:"route"`
	Passed   bool         `json:"passed"`
	Attempts []Attempt    `json:"attempts"`
	Summary  string       `json:"summary,omitempty"`
}

// Outcome is the full result of a pipeline run. For there-and-back shapes
// it carries a second route for the return leg plus the outbound summary
// that seeded the return leg's negative context.
type Outcome struct {
	Route           *RouteResult `json:"route"`
	Passed          bool         `json:"passed"`
	Attempts        []Attempt    `json:"attempts"`
	ReturnRoute     *RouteResult `json:"return_route,omitempty"`
	ReturnPassed    bool         `json:"return_passed,omitempty"`
	OutboundSummary string       `json:"outbound_summary,omitempty"`
	Narrative       string       `json:"narrative,omitempty"`
	Images          []Image      `json:"images,omitempty"`
	Venues          []Venue      `json:"venues,omitempty"`
	Warning         string       `json:"warning,omitempty"`
}
