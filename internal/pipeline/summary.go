package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/motomuse/service-routes/internal/geo"
)

// Steps included per leg when summarising a route for the planner.
const summaryMaxSteps = 8

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// ExtractSummary renders the roads and towns a route passes through as
// plain text, so the planner can see exactly where a failed route went
// wrong ("Route passes through Amsterdam via A10 ring road").
func ExtractSummary(route *RouteResult) string {
	if route == nil {
		return ""
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Leg 1: %s → %s (%.1f km)",
		orUnknown(route.StartAddress), orUnknown(route.EndAddress), route.DistanceKm))

	mentions := 0
	for _, step := range route.Steps {
		clean := stripHTML(step.Instruction)
		if clean == "" {
			continue
		}
		if mentions < summaryMaxSteps {
			lines = append(lines, "  - "+clean)
		}
		mentions++
	}
	if mentions > summaryMaxSteps {
		lines = append(lines, fmt.Sprintf("  ... and %d more steps", mentions-summaryMaxSteps))
	}
	return strings.Join(lines, "\n")
}

// KeyWaypoints picks up to n evenly spaced waypoints for imagery.
func KeyWaypoints(waypoints []geo.Point, n int) []geo.Point {
	if len(waypoints) <= n {
		return waypoints
	}
	out := make([]geo.Point, 0, n)
	for i := 0; i < n; i++ {
		idx := int(float64(i)*float64(len(waypoints)-1)/float64(n-1) + 0.5)
		out = append(out, waypoints[idx])
	}
	return out
}

// IssueStrings renders issues as human-readable lines for planner prompts.
func IssueStrings(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, iss := range issues {
		if iss.Detail != "" {
			out = append(out, iss.Detail)
			continue
		}
		out = append(out, string(iss.Kind))
	}
	return out
}

func stripHTML(s string) string {
	s = strings.ReplaceAll(s, "<div", " | <div")
	s = htmlTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
