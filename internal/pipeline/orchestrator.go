package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
)

// state names one node of the retry state machine.
type state int

const (
	stateProposing state = iota
	stateBuilding
	stateRepairing
	stateValidating
	stateAccepted
	stateEscalating
	stateExhausted
)

func (s state) String() string {
	switch s {
	case stateProposing:
		return "proposing_waypoints"
	case stateBuilding:
		return "building_route"
	case stateRepairing:
		return "repairing"
	case stateValidating:
		return "validating"
	case stateAccepted:
		return "accepted"
	case stateEscalating:
		return "escalating"
	case stateExhausted:
		return "exhausted_best_effort"
	}
	return "unknown"
}

// LegRequest describes one leg for the retry loop. End is nil for loop and
// one-way shapes; the leg composer sets it for there-and-back legs.
type LegRequest struct {
	Prefs  Preferences
	Start  geo.Point
	End    *geo.Point
	Region string

	// AvoidSummary biases the planner away from the other leg's roads.
	AvoidSummary string
}

// Orchestrator drives propose → build → repair → validate cycles until the
// route passes or the attempt budget is exhausted. A mediocre route is
// preferred to no route: exhaustion returns the last built route flagged
// passed=false, never an error.
type Orchestrator struct {
	planner   Planner
	builder   Builder
	validator RouteValidator
	snapper   WaypointRepairer
	cfg       Config
	logger    *zap.Logger
}

// NewOrchestrator wires the retry loop.
func NewOrchestrator(planner Planner, builder Builder, validator RouteValidator, snapper WaypointRepairer, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		planner:   planner,
		builder:   builder,
		validator: validator,
		snapper:   snapper,
		cfg:       cfg,
		logger:    logger,
	}
}

// legRun is the mutable state threaded through one leg's transitions.
type legRun struct {
	req        LegRequest
	attempt    int
	waypoints  []geo.Point
	route      *RouteResult
	lastRoute  *RouteResult
	issues     []Issue
	summary    string
	prompt     PromptKind
	promptText string
	forceRegen bool
	attempts   []Attempt
	started    time.Time
}

// Run executes the retry loop for one leg.
func (o *Orchestrator) Run(ctx context.Context, req LegRequest) (*LegOutcome, error) {
	run := &legRun{req: req, prompt: PromptInitial, started: time.Now()}

	st := stateProposing
	for {
		if err := ctx.Err(); err != nil {
			// Caller is gone; abandon further attempts, no background work.
			return nil, err
		}

		next, done, err := o.transition(ctx, st, run)
		if err != nil {
			return nil, err
		}
		if done {
			return o.finish(st, run)
		}
		st = next
	}
}

// transition performs the work of one state and returns the next. done is
// set when st is terminal.
func (o *Orchestrator) transition(ctx context.Context, st state, run *legRun) (state, bool, error) {
	switch st {
	case stateProposing:
		return o.propose(ctx, run), false, nil

	case stateBuilding:
		return o.build(ctx, run), false, nil

	case stateRepairing:
		return o.repair(ctx, run), false, nil

	case stateValidating:
		return o.validate(run), false, nil

	case stateEscalating:
		return o.escalate(run), false, nil

	case stateAccepted, stateExhausted:
		return st, true, nil
	}
	return st, false, fmt.Errorf("orchestrator in unknown state %d", st)
}

func (o *Orchestrator) propose(ctx context.Context, run *legRun) state {
	run.attempt++
	o.logger.Info("proposing waypoints",
		zap.Int("attempt", run.attempt),
		zap.String("prompt", string(run.prompt)),
	)

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	var resp *PlanResponse
	var err error
	if run.prompt == PromptFix {
		resp, err = o.planner.Fix(callCtx, FixRequest{
			Prefs:        run.req.Prefs,
			Waypoints:    run.waypoints,
			Issues:       IssueStrings(run.issues),
			RouteSummary: run.summary,
		})
	} else {
		planReq := PlanRequest{
			Prefs:         run.req.Prefs,
			Start:         run.req.Start,
			Region:        run.req.Region,
			WaypointCount: o.cfg.WaypointCount(run.req.Prefs.Shape),
			AvoidSummary:  run.req.AvoidSummary,
		}
		if run.prompt == PromptRegenerate {
			planReq.PreviousIssues = IssueStrings(run.issues)
			planReq.RouteSummary = run.summary
		}
		resp, err = o.planner.Propose(callCtx, planReq)
	}

	if err != nil {
		run.issues = []Issue{plannerFailureIssue(err)}
		run.route = nil
		run.promptText = promptFromError(err)
		o.record(run)
		o.logger.Warn("waypoint proposal failed",
			zap.Int("attempt", run.attempt), zap.Error(err))
		return stateEscalating
	}

	run.waypoints = resp.Waypoints
	run.promptText = resp.Prompt
	return stateBuilding
}

func (o *Orchestrator) build(ctx context.Context, run *legRun) state {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	route, err := o.builder.Build(callCtx, o.buildRequest(run.req, run.waypoints))
	if err != nil {
		// A route the provider cannot even connect is beyond fixing:
		// force full regeneration regardless of attempt number.
		run.issues = []Issue{{Kind: IssueNoRoute, Detail: err.Error()}}
		run.route = nil
		run.forceRegen = true
		o.record(run)
		o.logger.Warn("route build failed",
			zap.Int("attempt", run.attempt), zap.Error(err))
		return stateEscalating
	}

	run.route = route
	run.lastRoute = route
	return stateRepairing
}

// repair runs the spur snapper. Relocation triggers a rebuild but does not
// consume an attempt: the fix is deterministic geometry, not a planner
// round-trip.
func (o *Orchestrator) repair(ctx context.Context, run *legRun) state {
	repaired, moved := o.snapper.Repair(run.route, run.waypoints)
	if !moved {
		return stateValidating
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	rebuilt, err := o.builder.Build(callCtx, o.buildRequest(run.req, repaired))
	if err != nil {
		o.logger.Warn("rebuild after spur repair failed, keeping original route",
			zap.Error(err))
		return stateValidating
	}

	run.waypoints = repaired
	run.route = rebuilt
	run.lastRoute = rebuilt
	return stateValidating
}

func (o *Orchestrator) validate(run *legRun) state {
	run.issues = o.validator.Validate(run.route)
	run.summary = ExtractSummary(run.route)
	o.record(run)

	if len(run.issues) == 0 {
		o.logger.Info("route passed validation", zap.Int("attempt", run.attempt))
		return stateAccepted
	}
	o.logger.Warn("route failed validation",
		zap.Int("attempt", run.attempt),
		zap.Int("issues", len(run.issues)),
	)
	return stateEscalating
}

func (o *Orchestrator) escalate(run *legRun) state {
	if run.attempt >= o.cfg.MaxAttempts {
		return stateExhausted
	}
	if time.Since(run.started) > o.cfg.RequestBudget {
		o.logger.Warn("request budget exhausted, stopping early",
			zap.Int("attempt", run.attempt))
		return stateExhausted
	}

	next := run.attempt + 1
	if run.forceRegen || next >= o.cfg.RegenerateCutoff {
		run.prompt = PromptRegenerate
	} else {
		run.prompt = PromptFix
	}
	run.forceRegen = false
	return stateProposing
}

func (o *Orchestrator) finish(st state, run *legRun) (*LegOutcome, error) {
	if st == stateAccepted {
		return &LegOutcome{
			Route:    run.route,
			Passed:   true,
			Attempts: run.attempts,
			Summary:  run.summary,
		}, nil
	}

	if run.lastRoute == nil {
		// Every attempt died before a route was built. There is nothing
		// best-effort to hand back.
		return nil, fmt.Errorf("all %d attempts failed to build a route: %w",
			run.attempt, ErrNoRoute)
	}
	return &LegOutcome{
		Route:    run.lastRoute,
		Passed:   false,
		Attempts: run.attempts,
		Summary:  run.summary,
	}, nil
}

// record appends the audit entry for the current attempt. Entries are
// append-only and never rewritten.
func (o *Orchestrator) record(run *legRun) {
	run.attempts = append(run.attempts, Attempt{
		Index:      run.attempt,
		Issues:     run.issues,
		Summary:    run.summary,
		Prompt:     run.prompt,
		PromptText: run.promptText,
	})
}

func (o *Orchestrator) buildRequest(req LegRequest, waypoints []geo.Point) BuildRequest {
	switch {
	case req.End != nil:
		return BuildRequest{Start: req.Start, End: *req.End, Waypoints: waypoints}
	case req.Prefs.Shape == ShapeOneWay && len(waypoints) > 0:
		last := len(waypoints) - 1
		return BuildRequest{Start: req.Start, End: waypoints[last], Waypoints: waypoints[:last]}
	default:
		return BuildRequest{Start: req.Start, End: req.Start, Waypoints: waypoints}
	}
}

func plannerFailureIssue(err error) Issue {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return Issue{Kind: IssuePlannerParse, Detail: parseErr.Reason}
	}
	return Issue{Kind: IssuePlannerParse, Detail: err.Error()}
}

func promptFromError(err error) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Prompt
	}
	return ""
}
