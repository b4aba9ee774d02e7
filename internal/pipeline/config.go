package pipeline

import "time"

// Config collects every tunable of the pipeline in one immutable value.
// It is constructed once at startup and threaded explicitly through each
// component; nothing in the pipeline reads ambient state, so a single run
// can be tested with arbitrary threshold overrides.
type Config struct {
	// Waypoint counts per ride shape.
	LoopWaypointCount   int
	OneWayWaypointCount int

	// Highway fraction check.
	HighwayFractionLimit float64
	HighwayKeywords      []string

	// U-turn check.
	UTurnStepMaxM      float64
	UTurnBearingChange float64

	// Polyline self-overlap check.
	OverlapSampleM       float64
	OverlapProximityM    float64
	OverlapMinIndexGap   int
	OverlapFractionLimit float64

	// Dead-end spur check.
	SpurSampleM     float64
	SpurMinIndexGap int
	SpurProximityM  float64
	SpurDetourRatio float64
	SpurMinSegmentM float64

	// Urban density check.
	UrbanShortStepM        float64
	UrbanShortStepFraction float64

	// Waypoint spur snapper.
	SnapBearingThreshold float64
	SnapCorridorM        float64
	SnapMinSpurM         float64

	// Retry loop.
	MaxAttempts      int
	RegenerateCutoff int

	// Finishing stage imagery.
	ImageCount       int
	ImageSearchStepM float64
	ImageSearchMaxM  float64

	// Time budgets.
	CallTimeout   time.Duration
	RequestBudget time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		LoopWaypointCount:   5,
		OneWayWaypointCount: 4,

		HighwayFractionLimit: 0.10,
		HighwayKeywords: []string{
			"motorway", "highway", "freeway",
			// UK motorways.
			"m1", "m20", "m25",
			// Dutch / European motorway-grade A-roads.
			"a1", "a2", "a4", "a6", "a7", "a9", "a10", "a27", "a28",
		},

		UTurnStepMaxM:      200,
		UTurnBearingChange: 150,

		OverlapSampleM:       300,
		OverlapProximityM:    150,
		OverlapMinIndexGap:   5,
		OverlapFractionLimit: 0.03,

		SpurSampleM:     200,
		SpurMinIndexGap: 8,
		SpurProximityM:  300,
		SpurDetourRatio: 5.0,
		SpurMinSegmentM: 500,

		UrbanShortStepM:        300,
		UrbanShortStepFraction: 0.30,

		SnapBearingThreshold: 140,
		SnapCorridorM:        500,
		SnapMinSpurM:         200,

		MaxAttempts:      5,
		RegenerateCutoff: 3,

		ImageCount:       3,
		ImageSearchStepM: 250,
		ImageSearchMaxM:  2000,

		CallTimeout:   20 * time.Second,
		RequestBudget: 120 * time.Second,
	}
}

// WaypointCount returns how many waypoints the planner should propose for
// the given shape. Loop routes get more anchors than point-to-point legs.
func (c Config) WaypointCount(shape RideShape) int {
	if shape == ShapeLoop {
		return c.LoopWaypointCount
	}
	return c.OneWayWaypointCount
}
