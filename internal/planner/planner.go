// Package planner adapts the generative planning oracle behind the
// pipeline.Planner port. The oracle proposes waypoints from real
// geographic knowledge; its replies are free text and must survive the
// parse-and-validate boundary in parse.go before anything downstream
// touches them.
package planner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/motomuse/service-routes/internal/pipeline"
)

const defaultModel = "gemini-2.5-flash"

// Oracle is the genai-backed planner.
type Oracle struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// New creates an Oracle. model falls back to the default Gemini model when
// empty.
func New(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Oracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("planner API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Oracle{client: client, model: model, logger: logger}, nil
}

// Propose asks the oracle for a fresh waypoint set.
func (o *Oracle) Propose(ctx context.Context, req pipeline.PlanRequest) (*pipeline.PlanResponse, error) {
	prompt := buildWaypointPrompt(req)
	o.logger.Info("requesting waypoint proposal",
		zap.Int("count", req.WaypointCount),
		zap.String("region", req.Region),
	)

	raw, err := o.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	waypoints, perr := parseWaypoints(raw, req.WaypointCount)
	if perr != nil {
		perr.Prompt = prompt
		return nil, perr
	}
	return &pipeline.PlanResponse{Waypoints: waypoints, Prompt: prompt}, nil
}

// Fix asks the oracle to adjust the existing waypoints using the failed
// route's roads as context. The waypoint count must not change.
func (o *Oracle) Fix(ctx context.Context, req pipeline.FixRequest) (*pipeline.PlanResponse, error) {
	prompt := buildFixPrompt(req)
	o.logger.Info("requesting waypoint fix", zap.Int("issues", len(req.Issues)))

	raw, err := o.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	waypoints, perr := parseWaypoints(raw, len(req.Waypoints))
	if perr != nil {
		perr.Prompt = prompt
		return nil, perr
	}
	return &pipeline.PlanResponse{Waypoints: waypoints, Prompt: prompt}, nil
}

// Narrative generates the rider-facing route description.
func (o *Oracle) Narrative(ctx context.Context, req pipeline.NarrativeRequest) (string, error) {
	prompt := fmt.Sprintf(narrativePromptTemplate,
		req.DistanceKm,
		req.DurationMin,
		req.Prefs.DistanceKm,
		req.Prefs.Curviness,
		req.Prefs.Scenery,
		routeTypeLabel(req.Prefs.Shape),
		orFallback(req.StartAddress, req.Prefs.StartName),
		req.WaypointCount,
	)

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt),
		&genai.GenerateContentConfig{MaxOutputTokens: 300})
	if err != nil {
		return "", fmt.Errorf("narrative generation: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (o *Oracle) generateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(jsonSystemPrompt, genai.RoleUser),
			MaxOutputTokens:   512,
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("planner call: %w", err)
	}
	return resp.Text(), nil
}

func buildWaypointPrompt(req pipeline.PlanRequest) string {
	routeType := routeTypeLabel(req.Prefs.Shape)
	loopDescription := "end away from"
	if req.Prefs.Shape == pipeline.ShapeLoop {
		routeType = "loop (return to start)"
		loopDescription = "return to"
	}

	return fmt.Sprintf(waypointPromptTemplate,
		req.Region,
		req.Start.Lat,
		req.Start.Lng,
		req.Prefs.DistanceKm,
		req.Prefs.Curviness,
		req.Prefs.Scenery,
		routeType,
		req.WaypointCount,
		loopDescription,
		previousContext(req),
		req.WaypointCount,
	)
}

// previousContext renders the negative context block: issues and roads of
// a prior failed attempt, and for there-and-back return legs the outbound
// roads to steer away from.
func previousContext(req pipeline.PlanRequest) string {
	var sb strings.Builder

	if len(req.PreviousIssues) > 0 {
		sb.WriteString("\nA PREVIOUS ATTEMPT at this route failed validation:\n")
		for _, issue := range req.PreviousIssues {
			sb.WriteString("  - " + issue + "\n")
		}
		if req.RouteSummary != "" {
			sb.WriteString("\nThe failed route went through these roads/areas:\n")
			sb.WriteString(req.RouteSummary + "\n")
			sb.WriteString("\nGenerate COMPLETELY DIFFERENT waypoints that avoid the problematic areas listed above.\n")
		}
	}

	if req.AvoidSummary != "" {
		sb.WriteString("\nThe ride already covers these roads/areas on its other leg; prefer DIFFERENT roads:\n")
		sb.WriteString(req.AvoidSummary + "\n")
	}

	return sb.String()
}

func buildFixPrompt(req pipeline.FixRequest) string {
	var issues strings.Builder
	for _, issue := range req.Issues {
		issues.WriteString("- " + issue + "\n")
	}

	var wps strings.Builder
	for i, wp := range req.Waypoints {
		wps.WriteString(fmt.Sprintf("  %d. lat=%f, lng=%f\n", i+1, wp.Lat, wp.Lng))
	}

	summary := req.RouteSummary
	if summary == "" {
		summary = "(no route details available)"
	}

	return fmt.Sprintf(fixPromptTemplate,
		strings.TrimRight(issues.String(), "\n"),
		req.Prefs.DistanceKm,
		req.Prefs.Curviness,
		req.Prefs.Scenery,
		routeTypeLabel(req.Prefs.Shape),
		strings.TrimRight(wps.String(), "\n"),
		summary,
		len(req.Waypoints),
	)
}

func routeTypeLabel(shape pipeline.RideShape) string {
	switch shape {
	case pipeline.ShapeLoop:
		return "loop"
	case pipeline.ShapeThereAndBack:
		return "there-and-back leg"
	default:
		return "one-way"
	}
}

func orFallback(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
