package gmaps

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/motomuse/service-routes/internal/geo"
	"github.com/motomuse/service-routes/internal/pipeline"
)

// Meal stops are searched within this radius of the route midpoint.
const venueSearchRadiusM = 5000

// Maximum venues returned to the caller.
const venueLimit = 5

// POIFinder looks up meal-stop candidates near a point on the route.
type POIFinder struct {
	client *maps.Client
	logger *zap.Logger
}

// NewPOIFinder creates a POIFinder on an existing maps client.
func NewPOIFinder(client *maps.Client, logger *zap.Logger) *POIFinder {
	return &POIFinder{client: client, logger: logger}
}

// FindVenues returns restaurants near center, optionally filtered by
// cuisine keyword.
func (f *POIFinder) FindVenues(ctx context.Context, center geo.Point, cuisine string) ([]pipeline.Venue, error) {
	resp, err := f.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: center.Lat, Lng: center.Lng},
		Radius:   venueSearchRadiusM,
		Keyword:  cuisine,
		Type:     maps.PlaceTypeRestaurant,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	venues := make([]pipeline.Venue, 0, venueLimit)
	for _, r := range resp.Results {
		venues = append(venues, pipeline.Venue{
			Name: r.Name,
			Location: geo.Point{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Address: r.Vicinity,
			Rating:  r.Rating,
		})
		if len(venues) == venueLimit {
			break
		}
	}
	return venues, nil
}
