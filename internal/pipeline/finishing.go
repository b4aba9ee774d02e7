package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

// Finisher decorates an accepted (or best-effort) outcome with a narrative
// description, street-level imagery along the route and, when asked for,
// meal-stop candidates. Every decoration is non-fatal: a failed lookup is
// logged and omitted, never propagated.
type Finisher struct {
	planner Planner
	imagery Imagery
	venues  VenueFinder
	cfg     Config
	logger  *zap.Logger
}

// NewFinisher creates a Finisher. venues may be nil when no POI provider
// is configured.
func NewFinisher(planner Planner, imagery Imagery, venues VenueFinder, cfg Config, logger *zap.Logger) *Finisher {
	return &Finisher{planner: planner, imagery: imagery, venues: venues, cfg: cfg, logger: logger}
}

// Decorate fills the outcome's narrative, images and venues in place.
func (f *Finisher) Decorate(ctx context.Context, outcome *Outcome, prefs Preferences) {
	if outcome == nil || outcome.Route == nil {
		return
	}

	f.addNarrative(ctx, outcome, prefs)
	f.addImages(ctx, outcome)
	f.addVenues(ctx, outcome, prefs)
}

func (f *Finisher) addNarrative(ctx context.Context, outcome *Outcome, prefs Preferences) {
	callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
	defer cancel()

	narrative, err := f.planner.Narrative(callCtx, NarrativeRequest{
		Prefs:         prefs,
		DistanceKm:    outcome.Route.DistanceKm,
		DurationMin:   outcome.Route.DurationMin,
		StartAddress:  outcome.Route.StartAddress,
		WaypointCount: len(outcome.Route.Waypoints),
	})
	if err != nil {
		f.logger.Warn("narrative generation failed, omitting", zap.Error(err))
		return
	}
	outcome.Narrative = narrative
}

func (f *Finisher) addImages(ctx context.Context, outcome *Outcome) {
	points := outcome.Route.Points()
	if len(points) < 2 {
		return
	}

	for _, wp := range KeyWaypoints(outcome.Route.Waypoints, f.cfg.ImageCount) {
		img, ok := f.resolveImage(ctx, wp, points)
		if !ok {
			continue
		}
		outcome.Images = append(outcome.Images, img)
	}
}

// resolveImage finds the nearest point along the polyline with imagery
// coverage, searching outward at a fixed interval up to a maximum radius,
// and aims the camera along the local road bearing.
func (f *Finisher) resolveImage(ctx context.Context, wp geo.Point, points []geo.Point) (Image, bool) {
	startIdx := geo.NearestIndex(points, wp)

	for _, idx := range f.searchIndices(points, startIdx) {
		p := points[idx]
		covered, err := f.imagery.Coverage(ctx, p)
		if err != nil {
			f.logger.Warn("imagery coverage check failed, omitting image", zap.Error(err))
			return Image{}, false
		}
		if !covered {
			continue
		}
		heading := roadHeading(points, idx)
		return Image{
			URL:        f.imagery.ImageURL(p, heading),
			Location:   p,
			HeadingDeg: heading,
		}, true
	}
	return Image{}, false
}

// searchIndices yields polyline indices starting at startIdx and stepping
// outward in both directions at the configured interval, bounded by the
// maximum search radius.
func (f *Finisher) searchIndices(points []geo.Point, startIdx int) []int {
	indices := []int{startIdx}

	appendSteps := func(dir int) {
		var sinceLast, total float64
		i := startIdx
		for {
			next := i + dir
			if next < 0 || next >= len(points) {
				return
			}
			d := geo.HaversineM(points[i], points[next])
			sinceLast += d
			total += d
			i = next
			if total > f.cfg.ImageSearchMaxM {
				return
			}
			if sinceLast >= f.cfg.ImageSearchStepM {
				indices = append(indices, i)
				sinceLast = 0
			}
		}
	}
	appendSteps(1)
	appendSteps(-1)
	return indices
}

func (f *Finisher) addVenues(ctx context.Context, outcome *Outcome, prefs Preferences) {
	if !prefs.LunchStop || f.venues == nil {
		return
	}
	center, ok := midpointOnPath(outcome.Route.Points())
	if !ok {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
	defer cancel()

	venues, err := f.venues.FindVenues(callCtx, center, prefs.Cuisine)
	if err != nil {
		f.logger.Warn("meal stop lookup failed, omitting", zap.Error(err))
		return
	}
	outcome.Venues = venues
}

// roadHeading returns the bearing of the polyline segment at idx so a
// street-level camera faces along the road rather than into the verge.
func roadHeading(points []geo.Point, idx int) float64 {
	if len(points) < 2 {
		return 0
	}
	if idx < len(points)-1 {
		return geo.Bearing(points[idx], points[idx+1])
	}
	return geo.Bearing(points[idx-1], points[idx])
}
