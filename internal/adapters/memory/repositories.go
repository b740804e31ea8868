package memory

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"fmt"
	"slices"
)

// RouteRepository is the in-memory ports.RouteRepository.
type RouteRepository struct{ DB *DB }

func NewRouteRepository(db *DB) *RouteRepository { return &RouteRepository{DB: db} }

func (r *RouteRepository) FindPending(ctx context.Context) ([]*domain.Route, error) {
	r.DB.mu.RLock()
	defer r.DB.mu.RUnlock()

	out := make([]*domain.Route, 0)
	for _, id := range r.DB.order {
		if rt := r.DB.routes[id]; rt.Status == domain.RouteStatusPending {
			out = append(out, rt.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Route) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *RouteRepository) FindByID(ctx context.Context, id string) (*domain.Route, error) {
	r.DB.mu.RLock()
	defer r.DB.mu.RUnlock()

	rt, ok := r.DB.routes[id]
	if !ok {
		return nil, fmt.Errorf("find route %q: %w", id, domain.ErrRouteNotFound)
	}
	return rt.Clone(), nil
}

// FindByIDForUpdate is FindByID; the Transactor already serializes units of work.
func (r *RouteRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Route, error) {
	return r.FindByID(ctx, id)
}

func (r *RouteRepository) Save(ctx context.Context, route *domain.Route) error {
	if route == nil || route.ID == "" {
		return fmt.Errorf("save route: route id must not be empty")
	}

	r.DB.mu.Lock()
	defer r.DB.mu.Unlock()

	txFrom(ctx).remember(route.ID, r.DB.routes[route.ID])
	r.DB.putRouteLocked(route)
	return nil
}

func (r *RouteRepository) Delete(ctx context.Context, id string) error {
	r.DB.mu.Lock()
	defer r.DB.mu.Unlock()

	prev, ok := r.DB.routes[id]
	if !ok {
		return fmt.Errorf("delete route %q: %w", id, domain.ErrRouteNotFound)
	}
	txFrom(ctx).remember(id, prev)
	r.DB.deleteRouteLocked(id)
	return nil
}

func (r *RouteRepository) CountActiveForStaff(ctx context.Context, staffID string) (int, error) {
	active, err := r.ListActiveForStaff(ctx, staffID)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

func (r *RouteRepository) ListActiveForStaff(ctx context.Context, staffID string) ([]*domain.Route, error) {
	r.DB.mu.RLock()
	defer r.DB.mu.RUnlock()

	out := make([]*domain.Route, 0)
	for _, id := range r.DB.order {
		rt := r.DB.routes[id]
		if rt.AssignedStaffID != nil && *rt.AssignedStaffID == staffID && rt.Status.IsActive() {
			out = append(out, rt.Clone())
		}
	}
	return out, nil
}

// ZoneRepository is the in-memory ports.ZoneRepository.
type ZoneRepository struct{ DB *DB }

func NewZoneRepository(db *DB) *ZoneRepository { return &ZoneRepository{DB: db} }

// FindActiveZoneByDistrict returns the active zone covering districtID.
// When several active zones claim the district, the lowest zone id wins.
func (r *ZoneRepository) FindActiveZoneByDistrict(ctx context.Context, districtID string) (*domain.DeliveryZone, error) {
	r.DB.mu.RLock()
	defer r.DB.mu.RUnlock()

	var found *domain.DeliveryZone
	for _, z := range r.DB.zones {
		if !z.IsActive() || !z.Covers(districtID) {
			continue
		}
		if found == nil || z.ID < found.ID {
			found = z
		}
	}
	if found == nil {
		return nil, fmt.Errorf("district %q: %w", districtID, domain.ErrNoZoneFound)
	}
	return cloneZone(found), nil
}

// StaffRepository is the in-memory ports.StaffRepository.
type StaffRepository struct{ DB *DB }

func NewStaffRepository(db *DB) *StaffRepository { return &StaffRepository{DB: db} }

func (r *StaffRepository) FindByID(ctx context.Context, id string) (*domain.Staff, error) {
	r.DB.mu.RLock()
	defer r.DB.mu.RUnlock()

	s, ok := r.DB.staff[id]
	if !ok {
		return nil, fmt.Errorf("find staff %q: %w", id, domain.ErrStaffNotFound)
	}
	return cloneStaff(s), nil
}

// LockForAssignment is a no-op: the Transactor already runs one unit of work at a time.
func (r *StaffRepository) LockForAssignment(context.Context, []string) error { return nil }

// ShopRepository is the in-memory ports.ShopRepository.
type ShopRepository struct{ DB *DB }

func NewShopRepository(db *DB) *ShopRepository { return &ShopRepository{DB: db} }

func (r *ShopRepository) FindByID(ctx context.Context, id string) (*domain.Shop, error) {
	r.DB.mu.RLock()
	defer r.DB.mu.RUnlock()

	s, ok := r.DB.shops[id]
	if !ok {
		return nil, fmt.Errorf("find shop %q: %w", id, domain.ErrShopNotFound)
	}
	c := *s
	if s.Coordinates != nil {
		at := *s.Coordinates
		c.Coordinates = &at
	}
	return &c, nil
}
