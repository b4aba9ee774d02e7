package route

import (
	"context"

	"github.com/google/uuid"
)

// SavedRouteRepository is the persistence port for saved routes.
type SavedRouteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SavedRoute, error)
	FindByRiderID(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*SavedRoute, int64, error)
	Save(ctx context.Context, rt *SavedRoute) error
	Delete(ctx context.Context, id, riderID uuid.UUID) error
}
