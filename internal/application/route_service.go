// Package application holds the use-case layer: it turns transport-level
// requests into pipeline runs and saved-route operations, and owns the
// response cache and the event bus interactions around them.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/domain"
	routeDomain "github.com/motomuse/service-routes/internal/domain/route"
	"github.com/motomuse/service-routes/internal/geo"
	"github.com/motomuse/service-routes/internal/gmaps"
	"github.com/motomuse/service-routes/internal/pipeline"
)

// TopicRouteEvents is the kafka topic route lifecycle events go to.
const TopicRouteEvents = "route-events"

// EventRouteGenerated is the event type emitted after each pipeline run.
const EventRouteGenerated = "route.generated"

// Geocoder resolves free-text locations and labels coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (geo.Point, string, error)
	RegionLabel(ctx context.Context, p geo.Point) string
}

// Generator runs the route pipeline for a set of preferences.
type Generator interface {
	Generate(ctx context.Context, prefs pipeline.Preferences, region string) (*pipeline.Outcome, error)
}

// Decorator adds narrative, imagery and venues to an outcome.
type Decorator interface {
	Decorate(ctx context.Context, outcome *pipeline.Outcome, prefs pipeline.Preferences)
}

// OutcomeCache is the response cache port.
type OutcomeCache interface {
	Get(ctx context.Context, key string) (*pipeline.Outcome, bool)
	Put(ctx context.Context, key string, outcome *pipeline.Outcome)
}

// EventPublisher publishes domain events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType, key string, payload interface{}) error
}

// CacheKeyFunc derives the cache key for a preferences value.
type CacheKeyFunc func(prefs pipeline.Preferences) (string, error)

// GenerateRouteRequest is the transport-level request for a route run.
type GenerateRouteRequest struct {
	Start       string `json:"start" binding:"required"`
	Shape       string `json:"shape" binding:"required"`
	DistanceKm  int    `json:"distance_km" binding:"required"`
	Curviness   int    `json:"curviness"`
	Scenery     string `json:"scenery"`
	Destination string `json:"destination"`
	LunchStop   bool   `json:"lunch_stop"`
	Cuisine     string `json:"cuisine"`
}

// RouteGeneratedEvent is the payload of the route.generated event.
type RouteGeneratedEvent struct {
	RiderID     uuid.UUID          `json:"rider_id"`
	Shape       pipeline.RideShape `json:"shape"`
	DistanceKm  float64            `json:"distance_km"`
	DurationMin int                `json:"duration_min"`
	Passed      bool               `json:"passed"`
	Attempts    int                `json:"attempts"`
	Cached      bool               `json:"cached"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// GeneratedRouteDTO is the response representation of a pipeline run.
type GeneratedRouteDTO struct {
	Route           *pipeline.RouteResult `json:"route"`
	ReturnRoute     *pipeline.RouteResult `json:"return_route,omitempty"`
	Passed          bool                  `json:"passed"`
	ReturnPassed    bool                  `json:"return_passed,omitempty"`
	Attempts        []pipeline.Attempt    `json:"attempts"`
	Narrative       string                `json:"narrative,omitempty"`
	Images          []pipeline.Image      `json:"images,omitempty"`
	Venues          []pipeline.Venue      `json:"venues,omitempty"`
	Warning         string                `json:"warning,omitempty"`
	OutboundSummary string                `json:"outbound_summary,omitempty"`
	Cached          bool                  `json:"cached"`
}

// SaveRouteRequest names a generated route for keeping.
type SaveRouteRequest struct {
	Name    string               `json:"name" binding:"required"`
	Prefs   pipeline.Preferences `json:"preferences" binding:"required"`
	Outcome *pipeline.Outcome    `json:"outcome" binding:"required"`
}

// SavedRouteDTO is the response representation of a saved route.
type SavedRouteDTO struct {
	ID             uuid.UUID            `json:"id"`
	Name           string               `json:"name"`
	Preferences    pipeline.Preferences `json:"preferences"`
	Polyline       string               `json:"polyline"`
	ReturnPolyline string               `json:"return_polyline,omitempty"`
	DistanceKm     float64              `json:"distance_km"`
	DurationMin    int                  `json:"duration_min"`
	Narrative      string               `json:"narrative,omitempty"`
	Passed         bool                 `json:"passed"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// RouteService is the application service orchestrating route use cases.
type RouteService struct {
	geocoder  Geocoder
	generator Generator
	finisher  Decorator
	cache     OutcomeCache
	cacheKey  CacheKeyFunc
	repo      routeDomain.SavedRouteRepository
	producer  EventPublisher
	cfg       pipeline.Config
	logger    *zap.Logger
}

// NewRouteService creates a new RouteService. cache and producer may be nil
// when those backends are not configured.
func NewRouteService(
	geocoder Geocoder,
	generator Generator,
	finisher Decorator,
	cache OutcomeCache,
	cacheKey CacheKeyFunc,
	repo routeDomain.SavedRouteRepository,
	producer EventPublisher,
	cfg pipeline.Config,
	logger *zap.Logger,
) *RouteService {
	return &RouteService{
		geocoder:  geocoder,
		generator: generator,
		finisher:  finisher,
		cache:     cache,
		cacheKey:  cacheKey,
		repo:      repo,
		producer:  producer,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateRoute runs the full pipeline for the request: resolve locations,
// check the response cache, generate, decorate, cache and announce.
func (s *RouteService) GenerateRoute(ctx context.Context, riderID uuid.UUID, req GenerateRouteRequest) (*GeneratedRouteDTO, error) {
	prefs, err := s.buildPreferences(ctx, req)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil && s.cacheKey != nil {
		key, err = s.cacheKey(*prefs)
		if err != nil {
			s.logger.Warn("cache key derivation failed, skipping cache", zap.Error(err))
		} else if cached, ok := s.cache.Get(ctx, key); ok {
			s.logger.Info("serving cached route",
				zap.String("shape", string(prefs.Shape)))
			s.announce(ctx, riderID, prefs.Shape, cached, true)
			return toGeneratedDTO(cached, true), nil
		}
	}

	region := s.geocoder.RegionLabel(ctx, prefs.Start)

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestBudget)
	defer cancel()

	outcome, err := s.generator.Generate(runCtx, *prefs, region)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoRoute) {
			return nil, domain.NewValidationError(
				"no navigable route could be built between the requested locations")
		}
		return nil, fmt.Errorf("generate route: %w", err)
	}

	s.finisher.Decorate(runCtx, outcome, *prefs)

	if s.cache != nil && key != "" {
		s.cache.Put(ctx, key, outcome)
	}
	s.announce(ctx, riderID, prefs.Shape, outcome, false)

	return toGeneratedDTO(outcome, false), nil
}

// SaveRoute keeps a generated route under the rider's account.
func (s *RouteService) SaveRoute(ctx context.Context, riderID uuid.UUID, req SaveRouteRequest) (*SavedRouteDTO, error) {
	rt, err := routeDomain.NewSavedRoute(riderID, req.Name, req.Prefs, req.Outcome)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, rt); err != nil {
		return nil, err
	}

	s.logger.Info("route saved",
		zap.String("route_id", rt.ID().String()),
		zap.String("rider_id", riderID.String()),
	)
	return toSavedDTO(rt), nil
}

// GetRoute returns one saved route, enforcing ownership.
func (s *RouteService) GetRoute(ctx context.Context, riderID, id uuid.UUID) (*SavedRouteDTO, error) {
	rt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rt.RiderID() != riderID {
		return nil, domain.NewNotFoundError("SavedRoute", id.String())
	}
	return toSavedDTO(rt), nil
}

// ListRoutes returns the rider's saved routes, newest first.
func (s *RouteService) ListRoutes(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*SavedRouteDTO, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	routes, total, err := s.repo.FindByRiderID(ctx, riderID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*SavedRouteDTO, len(routes))
	for i, rt := range routes {
		dtos[i] = toSavedDTO(rt)
	}
	return dtos, total, nil
}

// DeleteRoute removes a saved route the rider owns.
func (s *RouteService) DeleteRoute(ctx context.Context, riderID, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, riderID)
}

// buildPreferences validates the request and resolves its locations into a
// preferences value. Location failures are the rider's to fix, so they map
// to validation errors rather than retries.
func (s *RouteService) buildPreferences(ctx context.Context, req GenerateRouteRequest) (*pipeline.Preferences, error) {
	shape := pipeline.RideShape(req.Shape)
	if !shape.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown ride shape %q", req.Shape))
	}
	if req.DistanceKm < 10 || req.DistanceKm > 1000 {
		return nil, domain.NewValidationError("distance must be between 10 and 1000 km")
	}
	if req.Curviness < 0 || req.Curviness > 5 {
		return nil, domain.NewValidationError("curviness must be between 0 and 5")
	}
	if shape == pipeline.ShapeThereAndBack && strings.TrimSpace(req.Destination) == "" {
		return nil, domain.NewValidationError("there-and-back rides require a destination")
	}

	start, startName, err := s.geocoder.Resolve(ctx, req.Start)
	if err != nil {
		if errors.Is(err, gmaps.ErrNotFound) {
			return nil, domain.NewValidationError(fmt.Sprintf("start location %q could not be found", req.Start))
		}
		return nil, fmt.Errorf("resolve start: %w", err)
	}

	prefs := &pipeline.Preferences{
		Shape:      shape,
		DistanceKm: req.DistanceKm,
		Curviness:  req.Curviness,
		Scenery:    req.Scenery,
		Start:      start,
		StartName:  startName,
		LunchStop:  req.LunchStop,
		Cuisine:    req.Cuisine,
	}

	if strings.TrimSpace(req.Destination) != "" {
		dest, destName, err := s.geocoder.Resolve(ctx, req.Destination)
		if err != nil {
			if errors.Is(err, gmaps.ErrNotFound) {
				return nil, domain.NewValidationError(fmt.Sprintf("destination %q could not be found", req.Destination))
			}
			return nil, fmt.Errorf("resolve destination: %w", err)
		}
		prefs.Destination = &dest
		prefs.DestinationName = destName
	}

	return prefs, nil
}

// announce publishes route.generated. Best effort: the route is already in
// hand, so a bus outage only costs telemetry.
func (s *RouteService) announce(ctx context.Context, riderID uuid.UUID, shape pipeline.RideShape, outcome *pipeline.Outcome, cached bool) {
	if s.producer == nil || outcome.Route == nil {
		return
	}
	event := RouteGeneratedEvent{
		RiderID:     riderID,
		Shape:       shape,
		DistanceKm:  outcome.Route.DistanceKm,
		DurationMin: outcome.Route.DurationMin,
		Passed:      outcome.Passed,
		Attempts:    len(outcome.Attempts),
		Cached:      cached,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, TopicRouteEvents, EventRouteGenerated, riderID.String(), event); err != nil {
		s.logger.Warn("failed to publish route.generated", zap.Error(err))
	}
}

func toGeneratedDTO(o *pipeline.Outcome, cached bool) *GeneratedRouteDTO {
	return &GeneratedRouteDTO{
		Route:           o.Route,
		ReturnRoute:     o.ReturnRoute,
		Passed:          o.Passed,
		ReturnPassed:    o.ReturnPassed,
		Attempts:        o.Attempts,
		Narrative:       o.Narrative,
		Images:          o.Images,
		Venues:          o.Venues,
		Warning:         o.Warning,
		OutboundSummary: o.OutboundSummary,
		Cached:          cached,
	}
}

func toSavedDTO(rt *routeDomain.SavedRoute) *SavedRouteDTO {
	return &SavedRouteDTO{
		ID:             rt.ID(),
		Name:           rt.Name(),
		Preferences:    rt.Prefs(),
		Polyline:       rt.Polyline(),
		ReturnPolyline: rt.ReturnPolyline(),
		DistanceKm:     rt.DistanceKm(),
		DurationMin:    rt.DurationMin(),
		Narrative:      rt.Narrative(),
		Passed:         rt.Passed(),
		CreatedAt:      rt.CreatedAt(),
		UpdatedAt:      rt.UpdatedAt(),
	}
}
