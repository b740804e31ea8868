package ports

import (
	"context"
	"delivery-dispatch-service/internal/domain"
)

// Port: persistence boundary for Route aggregates.
// Implementations return domain.ErrRouteNotFound (wrapped) for unknown ids.
type RouteRepository interface {
	// Return every route currently in the pending status, oldest first.
	FindPending(ctx context.Context) ([]*domain.Route, error)
	FindByID(ctx context.Context, id string) (*domain.Route, error)
	// Like FindByID, but locks the route row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Route, error)
	// Insert or update the route.
	Save(ctx context.Context, route *domain.Route) error
	Delete(ctx context.Context, id string) error
	// Count routes assigned to staffID that are assigned or delivering.
	CountActiveForStaff(ctx context.Context, staffID string) (int, error)
	// Return routes assigned to staffID that are assigned or delivering.
	ListActiveForStaff(ctx context.Context, staffID string) ([]*domain.Route, error)
}
