package planner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/motomuse/service-routes/internal/geo"
	"github.com/motomuse/service-routes/internal/pipeline"
)

// The oracle sometimes wraps its JSON in commentary despite the system
// prompt. Fall back to the first [...] block in the reply.
var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

type waypointJSON struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// parseWaypoints is the parse-and-validate boundary between the oracle's
// free text and the typed pipeline. It returns exactly expectedCount
// coordinates or a *pipeline.ParseError; malformed replies never propagate
// downstream as untyped data.
func parseWaypoints(raw string, expectedCount int) ([]geo.Point, *pipeline.ParseError) {
	arr, ok := extractJSONArray(raw)
	if !ok {
		return nil, &pipeline.ParseError{
			Reason: "reply contains no JSON array",
			Raw:    truncate(raw, 300),
		}
	}

	var parsed []waypointJSON
	if err := json.Unmarshal(arr, &parsed); err != nil {
		return nil, &pipeline.ParseError{
			Reason: fmt.Sprintf("waypoint array does not decode: %v", err),
			Raw:    truncate(raw, 300),
		}
	}

	points := make([]geo.Point, 0, len(parsed))
	for i, wp := range parsed {
		if wp.Lat == nil || wp.Lng == nil {
			return nil, &pipeline.ParseError{
				Reason: fmt.Sprintf("waypoint %d is missing lat/lng", i),
				Raw:    truncate(raw, 300),
			}
		}
		if *wp.Lat < -90 || *wp.Lat > 90 || *wp.Lng < -180 || *wp.Lng > 180 {
			return nil, &pipeline.ParseError{
				Reason: fmt.Sprintf("waypoint %d is out of coordinate range", i),
				Raw:    truncate(raw, 300),
			}
		}
		points = append(points, geo.Point{Lat: *wp.Lat, Lng: *wp.Lng})
	}

	if expectedCount > 0 && len(points) != expectedCount {
		return nil, &pipeline.ParseError{
			Reason: fmt.Sprintf("expected %d waypoints, got %d", expectedCount, len(points)),
			Raw:    truncate(raw, 300),
		}
	}
	return points, nil
}

func extractJSONArray(text string) (json.RawMessage, bool) {
	text = strings.TrimSpace(text)

	// Whole-string fast path.
	if json.Valid([]byte(text)) && strings.HasPrefix(text, "[") {
		return json.RawMessage(text), true
	}

	if match := jsonArrayRe.FindString(text); match != "" && json.Valid([]byte(match)) {
		return json.RawMessage(match), true
	}
	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
