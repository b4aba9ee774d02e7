// Package gmaps adapts the Google Maps Platform behind the pipeline's
// collaborator ports: geocoding, the directions-based route builder,
// street-level imagery and the points-of-interest lookup.
package gmaps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/motomuse/service-routes/internal/geo"
)

// ErrNotFound reports an address with no geocoding match.
var ErrNotFound = errors.New("no geocoding match")

// Geocoder resolves free-text locations to coordinates and coordinates to
// human-readable region labels.
type Geocoder struct {
	client *maps.Client
	logger *zap.Logger
}

// NewGeocoder creates a Geocoder on an existing maps client.
func NewGeocoder(client *maps.Client, logger *zap.Logger) *Geocoder {
	return &Geocoder{client: client, logger: logger}
}

// Resolve returns the coordinates and formatted address for a location
// string. A "lat,lng" string is parsed directly without a network call.
func (g *Geocoder) Resolve(ctx context.Context, location string) (geo.Point, string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return geo.Point{}, "", fmt.Errorf("location must not be empty: %w", ErrNotFound)
	}

	if p, ok := parseLatLng(location); ok {
		return p, location, nil
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		return geo.Point{}, "", fmt.Errorf("geocode %q: %w", location, err)
	}
	if len(results) == 0 {
		return geo.Point{}, "", fmt.Errorf("geocode %q: %w", location, ErrNotFound)
	}

	loc := results[0].Geometry.Location
	return geo.Point{Lat: loc.Lat, Lng: loc.Lng}, results[0].FormattedAddress, nil
}

// RegionLabel reverse-geocodes p into a region string for planner context
// ("Almere, Flevoland, Netherlands"). Best effort: failures fall back to
// the raw coordinates.
func (g *Geocoder) RegionLabel(ctx context.Context, p geo.Point) string {
	fallback := fmt.Sprintf("%f,%f", p.Lat, p.Lng)

	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		g.logger.Warn("reverse geocode failed, using raw coordinates", zap.Error(err))
		return fallback
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return fallback
	}
	return results[0].FormattedAddress
}

func parseLatLng(s string) (geo.Point, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}
