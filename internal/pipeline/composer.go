package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

// Composer turns preferences into a full pipeline outcome. Loop and
// one-way shapes run the retry loop once; there-and-back shapes run it
// twice, seeding the return leg with the outbound's road and town names as
// negative context so the two legs favour different roads.
type Composer struct {
	orch   *Orchestrator
	cfg    Config
	logger *zap.Logger
}

// NewComposer creates a Composer on top of the retry orchestrator.
func NewComposer(orch *Orchestrator, cfg Config, logger *zap.Logger) *Composer {
	return &Composer{orch: orch, cfg: cfg, logger: logger}
}

// Generate runs the pipeline for the given preferences. region is the
// human-readable label of the start area fed to the planner.
func (c *Composer) Generate(ctx context.Context, prefs Preferences, region string) (*Outcome, error) {
	if prefs.Shape == ShapeThereAndBack {
		return c.generateThereAndBack(ctx, prefs, region)
	}

	leg := LegRequest{Prefs: prefs, Start: prefs.Start, Region: region}
	if prefs.Shape == ShapeOneWay && prefs.Destination != nil {
		leg.End = prefs.Destination
	}

	out, err := c.orch.Run(ctx, leg)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Route:    out.Route,
		Passed:   out.Passed,
		Attempts: out.Attempts,
	}
	c.flagBestEffort(outcome)
	return outcome, nil
}

func (c *Composer) generateThereAndBack(ctx context.Context, prefs Preferences, region string) (*Outcome, error) {
	if prefs.Destination == nil {
		return nil, fmt.Errorf("there-and-back rides require a destination")
	}
	dest := *prefs.Destination

	c.logger.Info("generating outbound leg",
		zap.String("destination", prefs.DestinationName))
	outbound, err := c.orch.Run(ctx, LegRequest{
		Prefs:  prefs,
		Start:  prefs.Start,
		End:    &dest,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("outbound leg: %w", err)
	}

	// The return leg is biased away from the outbound roads by prompt
	// context only; overlap with the outbound leg is not hard-enforced.
	start := prefs.Start
	c.logger.Info("generating return leg")
	ret, err := c.orch.Run(ctx, LegRequest{
		Prefs:        prefs,
		Start:        dest,
		End:          &start,
		Region:       region,
		AvoidSummary: outbound.Summary,
	})
	if err != nil {
		return nil, fmt.Errorf("return leg: %w", err)
	}

	outcome := &Outcome{
		Route:           outbound.Route,
		Passed:          outbound.Passed && ret.Passed,
		Attempts:        append(outbound.Attempts, ret.Attempts...),
		ReturnRoute:     ret.Route,
		ReturnPassed:    ret.Passed,
		OutboundSummary: outbound.Summary,
	}
	c.flagBestEffort(outcome)
	return outcome, nil
}

// flagBestEffort attaches the rider-facing warning the caller must surface
// when quality checks did not fully pass.
func (c *Composer) flagBestEffort(o *Outcome) {
	if o.Passed {
		return
	}
	o.Warning = fmt.Sprintf(
		"Route quality checks did not fully pass after %d attempts; this is the best route found. Expect the occasional busy road or double-back.",
		c.cfg.MaxAttempts)
}

// midpointOnPath returns the point halfway along the route polyline, used
// to centre the meal-stop search.
func midpointOnPath(points []geo.Point) (geo.Point, bool) {
	if len(points) == 0 {
		return geo.Point{}, false
	}
	total := geo.PathDistanceM(points, 0, len(points)-1)
	var walked float64
	for i := 1; i < len(points); i++ {
		walked += geo.HaversineM(points[i-1], points[i])
		if walked >= total/2 {
			return points[i], true
		}
	}
	return points[len(points)-1], true
}
