package pipeline

import (
	"fmt"
	"strings"

	"github.com/motomuse/service-routes/internal/geo"
)

// Validator runs five independent geometric checks against a built route.
// Each check is configured by its own thresholds; the result is the union
// of triggered issues and an empty union is a pass.
type Validator struct {
	cfg Config
}

// NewValidator creates a Validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate returns every issue the route triggers.
func (v *Validator) Validate(route *RouteResult) []Issue {
	var issues []Issue
	if route == nil {
		return []Issue{{Kind: IssueNoRoute, Detail: "no route to validate"}}
	}

	points := route.Points()

	if iss := v.checkHighwayFraction(route); iss != nil {
		issues = append(issues, *iss)
	}
	if iss := v.checkUTurn(route); iss != nil {
		issues = append(issues, *iss)
	}
	if iss := v.checkOverlap(points); iss != nil {
		issues = append(issues, *iss)
	}
	if iss := v.checkDeadEndSpur(points); iss != nil {
		issues = append(issues, *iss)
	}
	if iss := v.checkUrbanDensity(route); iss != nil {
		issues = append(issues, *iss)
	}
	return issues
}

// checkHighwayFraction sums the length of steps whose instruction mentions
// a motorway keyword and fails the route when that share of the total
// distance exceeds the limit.
func (v *Validator) checkHighwayFraction(route *RouteResult) *Issue {
	var totalM, highwayM int
	for _, s := range route.Steps {
		totalM += s.DistanceM
		if v.isHighwayStep(s) {
			highwayM += s.DistanceM
		}
	}
	if totalM == 0 {
		return nil
	}
	fraction := float64(highwayM) / float64(totalM)
	if fraction <= v.cfg.HighwayFractionLimit {
		return nil
	}
	return &Issue{
		Kind:     IssueHighwayFraction,
		Measured: fraction,
		Limit:    v.cfg.HighwayFractionLimit,
		Detail: fmt.Sprintf("route uses motorways for %.0f%% of total distance (limit %.0f%%)",
			fraction*100, v.cfg.HighwayFractionLimit*100),
	}
}

func (v *Validator) isHighwayStep(s RouteStep) bool {
	instr := strings.ToLower(s.Instruction)
	for _, kw := range v.cfg.HighwayKeywords {
		if strings.Contains(instr, kw) {
			return true
		}
	}
	return false
}

// checkUTurn flags a bearing reversal across two consecutive short steps.
// One flagged pair is enough to fail the route.
func (v *Validator) checkUTurn(route *RouteResult) *Issue {
	steps := route.Steps
	for i := 1; i < len(steps); i++ {
		prev, curr := steps[i-1], steps[i]
		if float64(prev.DistanceM) >= v.cfg.UTurnStepMaxM || float64(curr.DistanceM) >= v.cfg.UTurnStepMaxM {
			continue
		}
		diff := geo.BearingDiff(
			geo.Bearing(prev.Start, prev.End),
			geo.Bearing(curr.Start, curr.End),
		)
		if diff > v.cfg.UTurnBearingChange {
			return &Issue{
				Kind:     IssueUTurn,
				Measured: diff,
				Limit:    v.cfg.UTurnBearingChange,
				Detail:   fmt.Sprintf("possible U-turn at step %d (bearing change %.0f°)", i, diff),
			}
		}
	}
	return nil
}

// checkOverlap detects large-scale double-backs: the polyline is sampled at
// a fixed spacing and the route fails when too many samples sit close to a
// non-adjacent sample, meaning the route retraces the same corridor.
func (v *Validator) checkOverlap(points []geo.Point) *Issue {
	if len(points) < 2 {
		return nil
	}
	samples := geo.SampleEvery(points, v.cfg.OverlapSampleM)
	if len(samples) < v.cfg.OverlapMinIndexGap*2 {
		return nil // Route too short to meaningfully check.
	}

	overlapCount := 0
	for i := range samples {
		for j := i + v.cfg.OverlapMinIndexGap; j < len(samples); j++ {
			if geo.HaversineM(samples[i].Point, samples[j].Point) < v.cfg.OverlapProximityM {
				overlapCount++
				break // One overlap per sample is enough.
			}
		}
	}

	fraction := float64(overlapCount) / float64(len(samples))
	if fraction <= v.cfg.OverlapFractionLimit {
		return nil
	}
	return &Issue{
		Kind:     IssueOverlap,
		Measured: fraction,
		Limit:    v.cfg.OverlapFractionLimit,
		Detail: fmt.Sprintf("route doubles back on itself: %.0f%% of sampled points overlap non-adjacent segments (limit %.0f%%)",
			fraction*100, v.cfg.OverlapFractionLimit*100),
	}
}

// checkDeadEndSpur samples the polyline at a finer spacing than the overlap
// check and looks for non-adjacent sample pairs that are geographically
// close while the path between them is long: an out-and-back spur too short
// or too contorted to be legitimate loop geometry.
func (v *Validator) checkDeadEndSpur(points []geo.Point) *Issue {
	if len(points) < 2 {
		return nil
	}
	samples := geo.SampleEvery(points, v.cfg.SpurSampleM)
	if len(samples) < v.cfg.SpurMinIndexGap*2 {
		return nil
	}

	for i := range samples {
		for j := i + v.cfg.SpurMinIndexGap; j < len(samples); j++ {
			straight := geo.HaversineM(samples[i].Point, samples[j].Point)
			if straight >= v.cfg.SpurProximityM {
				continue
			}
			pathM := samples[j].PathM - samples[i].PathM
			if pathM <= v.cfg.SpurMinSegmentM {
				continue
			}
			ratio := pathM / maxf(straight, 1)
			if ratio > v.cfg.SpurDetourRatio {
				return &Issue{
					Kind:     IssueDeadEndSpur,
					Measured: ratio,
					Limit:    v.cfg.SpurDetourRatio,
					Detail: fmt.Sprintf("dead-end spur suspected: %.0fm of path between points only %.0fm apart (detour ratio %.1f)",
						pathM, straight, ratio),
				}
			}
		}
	}
	return nil
}

// checkUrbanDensity uses the share of short steps as a proxy for routing
// through a dense urban grid.
func (v *Validator) checkUrbanDensity(route *RouteResult) *Issue {
	if len(route.Steps) == 0 {
		return nil
	}
	short := 0
	for _, s := range route.Steps {
		if float64(s.DistanceM) < v.cfg.UrbanShortStepM {
			short++
		}
	}
	fraction := float64(short) / float64(len(route.Steps))
	if fraction <= v.cfg.UrbanShortStepFraction {
		return nil
	}
	return &Issue{
		Kind:     IssueUrbanDensity,
		Measured: fraction,
		Limit:    v.cfg.UrbanShortStepFraction,
		Detail: fmt.Sprintf("route appears to pass through urban areas: %.0f%% of steps are shorter than %.0fm (limit %.0f%%)",
			fraction*100, v.cfg.UrbanShortStepM, v.cfg.UrbanShortStepFraction*100),
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
