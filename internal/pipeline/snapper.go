package pipeline

import (
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

// Snapper relocates waypoints that sit on dead-end spurs. It runs before
// validation: the repair is deterministic geometry, so it costs a rebuild
// but never a planner round-trip.
type Snapper struct {
	cfg    Config
	logger *zap.Logger
}

// NewSnapper creates a Snapper with the given thresholds.
func NewSnapper(cfg Config, logger *zap.Logger) *Snapper {
	return &Snapper{cfg: cfg, logger: logger}
}

// Repair checks every waypoint against the built route. A waypoint whose
// approach and departure bearings differ by more than the threshold sits on
// a spur; it is moved to the branch point where the spur leaves the
// through-road. Returns the new waypoint set and whether anything moved.
func (s *Snapper) Repair(route *RouteResult, waypoints []geo.Point) ([]geo.Point, bool) {
	points := route.Points()
	if len(points) < 3 || len(waypoints) == 0 {
		return waypoints, false
	}

	out := make([]geo.Point, len(waypoints))
	copy(out, waypoints)
	moved := false

	for wi, wp := range out {
		idx := geo.NearestIndex(points, wp)
		if idx == 0 || idx >= len(points)-1 {
			continue
		}

		approach, ok := bearingInto(points, idx)
		if !ok {
			continue
		}
		departure, ok := bearingOutOf(points, idx)
		if !ok {
			continue
		}

		diff := geo.BearingDiff(approach, departure)
		if diff <= s.cfg.SnapBearingThreshold {
			continue
		}

		branch, spurLenM, ok := s.findBranchPoint(points, idx)
		if !ok || spurLenM <= s.cfg.SnapMinSpurM {
			continue
		}

		s.logger.Info("relocating spur waypoint",
			zap.Int("waypoint", wi),
			zap.Float64("bearing_diff", diff),
			zap.Float64("spur_len_m", spurLenM),
		)
		out[wi] = branch
		moved = true
	}

	return out, moved
}

// findBranchPoint walks outward from the turnaround index along the
// incoming and outgoing legs simultaneously, sample by sample, until the
// two paths diverge by more than the corridor width. That divergence point
// is the junction where the spur leaves the through-road.
func (s *Snapper) findBranchPoint(points []geo.Point, idx int) (geo.Point, float64, bool) {
	i, j := idx-1, idx+1
	for i >= 0 && j < len(points) {
		if geo.HaversineM(points[i], points[j]) > s.cfg.SnapCorridorM {
			spurLenM := geo.PathDistanceM(points, i, idx)
			return points[i], spurLenM, true
		}
		i--
		j++
	}
	return geo.Point{}, 0, false
}

// Bearings are taken over at least minBearingLegM of path so a single
// jittery polyline vertex cannot fake a reversal.
const minBearingLegM = 50.0

func bearingInto(points []geo.Point, idx int) (float64, bool) {
	i := idx - 1
	for i > 0 && geo.PathDistanceM(points, i, idx) < minBearingLegM {
		i--
	}
	if i < 0 || i == idx {
		return 0, false
	}
	return geo.Bearing(points[i], points[idx]), true
}

func bearingOutOf(points []geo.Point, idx int) (float64, bool) {
	j := idx + 1
	for j < len(points)-1 && geo.PathDistanceM(points, idx, j) < minBearingLegM {
		j++
	}
	if j >= len(points) || j == idx {
		return 0, false
	}
	return geo.Bearing(points[idx], points[j]), true
}
