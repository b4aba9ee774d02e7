package gmaps

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/motomuse/service-routes/internal/geo"
	"github.com/motomuse/service-routes/internal/pipeline"
)

// DirectionsBuilder builds navigable routes through the Directions API.
// Motorways and tolled roads are always excluded: that is the product
// rule, not a tunable.
type DirectionsBuilder struct {
	client *maps.Client
	logger *zap.Logger
}

// NewDirectionsBuilder creates a DirectionsBuilder on an existing maps
// client.
func NewDirectionsBuilder(client *maps.Client, logger *zap.Logger) *DirectionsBuilder {
	return &DirectionsBuilder{client: client, logger: logger}
}

// Build submits the waypoints and returns a normalized route, or
// pipeline.ErrNoRoute when the provider cannot connect them.
func (b *DirectionsBuilder) Build(ctx context.Context, req pipeline.BuildRequest) (*pipeline.RouteResult, error) {
	wps := make([]string, len(req.Waypoints))
	for i, wp := range req.Waypoints {
		wps[i] = formatLatLng(wp)
	}

	routes, _, err := b.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      formatLatLng(req.Start),
		Destination: formatLatLng(req.End),
		Waypoints:   wps,
		Mode:        maps.TravelModeDriving,
		Avoid:       []maps.Avoid{maps.AvoidHighways, maps.AvoidTolls},
	})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, fmt.Errorf("directions: %w", pipeline.ErrNoRoute)
		}
		return nil, fmt.Errorf("directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("directions returned no routes: %w", pipeline.ErrNoRoute)
	}

	return b.normalize(routes[0], req.Waypoints), nil
}

// normalize flattens the provider route into the pipeline's RouteResult.
// The polyline is rebuilt from step-level polylines: the overview polyline
// is simplified so aggressively it cuts through fields and water, which
// would poison the geometric checks downstream.
func (b *DirectionsBuilder) normalize(route maps.Route, waypoints []geo.Point) *pipeline.RouteResult {
	var steps []pipeline.RouteStep
	var totalM int
	var totalS float64
	var startAddr, endAddr string

	for _, leg := range route.Legs {
		if startAddr == "" {
			startAddr = leg.StartAddress
		}
		endAddr = leg.EndAddress
		totalM += leg.Distance.Meters
		totalS += leg.Duration.Seconds()

		for _, step := range leg.Steps {
			steps = append(steps, pipeline.RouteStep{
				DistanceM:   step.Distance.Meters,
				DurationS:   int(step.Duration.Seconds()),
				Instruction: step.HTMLInstructions,
				Start:       geo.Point{Lat: step.StartLocation.Lat, Lng: step.StartLocation.Lng},
				End:         geo.Point{Lat: step.EndLocation.Lat, Lng: step.EndLocation.Lng},
				Polyline:    step.Polyline.Points,
			})
		}
	}

	polyline := detailedPolyline(steps)
	if polyline == "" {
		polyline = route.OverviewPolyline.Points
	}

	return &pipeline.RouteResult{
		Polyline:     polyline,
		DistanceKm:   float64(totalM) / 1000,
		DurationMin:  int(totalS / 60),
		Steps:        steps,
		Waypoints:    waypoints,
		StartAddress: startAddr,
		EndAddress:   endAddr,
	}
}

// detailedPolyline concatenates the step polylines into one high-resolution
// encoded polyline, dropping the duplicated point at each step boundary.
func detailedPolyline(steps []pipeline.RouteStep) string {
	var all []geo.Point
	for _, step := range steps {
		pts := geo.DecodePolyline(step.Polyline)
		if len(pts) == 0 {
			continue
		}
		if len(all) > 0 && pts[0] == all[len(all)-1] {
			pts = pts[1:]
		}
		all = append(all, pts...)
	}
	if len(all) == 0 {
		return ""
	}
	return geo.EncodePolyline(all)
}

func formatLatLng(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
