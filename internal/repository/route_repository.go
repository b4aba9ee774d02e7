package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motomuse/service-routes/internal/domain"
	routeDomain "github.com/motomuse/service-routes/internal/domain/route"
	"github.com/motomuse/service-routes/internal/pipeline"
)

// SavedRouteModel is the GORM model for the saved_routes table.
type SavedRouteModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RiderID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name           string          `gorm:"not null;size:200"`
	Preferences    json.RawMessage `gorm:"type:jsonb;not null"`
	Polyline       string          `gorm:"type:text;not null"`
	ReturnPolyline string          `gorm:"type:text"`
	DistanceKm     float64         `gorm:"not null"`
	DurationMin    int             `gorm:"not null"`
	Narrative      string          `gorm:"type:text"`
	Passed         bool            `gorm:"not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SavedRouteModel) TableName() string {
	return "saved_routes"
}

// GormSavedRouteRepository is the GORM-based implementation of the
// saved-route repository.
type GormSavedRouteRepository struct {
	db *gorm.DB
}

// NewGormSavedRouteRepository creates a new GormSavedRouteRepository.
func NewGormSavedRouteRepository(db *gorm.DB) *GormSavedRouteRepository {
	return &GormSavedRouteRepository{db: db}
}

// Migrate creates or updates the saved_routes table.
func (r *GormSavedRouteRepository) Migrate() error {
	return r.db.AutoMigrate(&SavedRouteModel{})
}

// FindByID retrieves a saved route by its unique identifier.
func (r *GormSavedRouteRepository) FindByID(ctx context.Context, id uuid.UUID) (*routeDomain.SavedRoute, error) {
	var model SavedRouteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("SavedRoute", id.String())
		}
		return nil, fmt.Errorf("failed to find saved route by ID: %w", err)
	}
	return toDomainSavedRoute(&model)
}

// FindByRiderID retrieves a rider's saved routes with pagination, newest
// first.
func (r *GormSavedRouteRepository) FindByRiderID(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*routeDomain.SavedRoute, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&SavedRouteModel{}).Where("rider_id = ?", riderID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count saved routes: %w", err)
	}

	var models []SavedRouteModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find saved routes: %w", err)
	}

	routes := make([]*routeDomain.SavedRoute, len(models))
	for i, m := range models {
		rt, err := toDomainSavedRoute(&m)
		if err != nil {
			return nil, 0, err
		}
		routes[i] = rt
	}

	return routes, total, nil
}

// Save persists a saved route, inserting or updating as needed.
func (r *GormSavedRouteRepository) Save(ctx context.Context, rt *routeDomain.SavedRoute) error {
	model, err := toSavedRouteModel(rt)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}
	return nil
}

// Delete removes a saved route owned by the given rider.
func (r *GormSavedRouteRepository) Delete(ctx context.Context, id, riderID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND rider_id = ?", id, riderID).
		Delete(&SavedRouteModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete saved route: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("SavedRoute", id.String())
	}
	return nil
}

func toSavedRouteModel(rt *routeDomain.SavedRoute) (*SavedRouteModel, error) {
	prefs, err := json.Marshal(rt.Prefs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	return &SavedRouteModel{
		ID:             rt.ID(),
		RiderID:        rt.RiderID(),
		Name:           rt.Name(),
		Preferences:    prefs,
		Polyline:       rt.Polyline(),
		ReturnPolyline: rt.ReturnPolyline(),
		DistanceKm:     rt.DistanceKm(),
		DurationMin:    rt.DurationMin(),
		Narrative:      rt.Narrative(),
		Passed:         rt.Passed(),
		CreatedAt:      rt.CreatedAt(),
		UpdatedAt:      rt.UpdatedAt(),
	}, nil
}

func toDomainSavedRoute(m *SavedRouteModel) (*routeDomain.SavedRoute, error) {
	var prefs pipeline.Preferences
	if err := json.Unmarshal(m.Preferences, &prefs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return routeDomain.Reconstruct(
		m.ID,
		m.RiderID,
		m.Name,
		prefs,
		m.Polyline,
		m.ReturnPolyline,
		m.DistanceKm,
		m.DurationMin,
		m.Narrative,
		m.Passed,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
