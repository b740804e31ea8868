package services

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultDailyDistanceCeilingKm caps the combined span of a staff member's active routes.
const DefaultDailyDistanceCeilingKm = 100.0

// Rejection reasons reported by the eligibility filter.
const (
	ReasonInactive            = "staff_inactive"
	ReasonMaxConcurrentRoutes = "max_concurrent_routes"
	ReasonMaxRouteDistance    = "max_distance_per_route"
	ReasonDailyDistance       = "daily_distance_ceiling"
)

// Candidate is a staff member that passed the eligibility filter for one route.
type Candidate struct {
	Staff            *domain.Staff
	ActiveRoutes     int
	ActiveDistanceKm float64
}

// Eligibility is the outcome of checking one staff member against one route.
type Eligibility struct {
	Eligible         bool
	Reason           string
	ActiveRoutes     int
	ActiveDistanceKm float64
}

// EligibilityFilter decides which zone staff may legally take a route.
type EligibilityFilter struct {
	Routes                 ports.RouteRepository
	Shops                  ports.ShopRepository
	DailyDistanceCeilingKm float64
	Log                    logrus.FieldLogger
}

func NewEligibilityFilter(routes ports.RouteRepository, shops ports.ShopRepository, dailyCeilingKm float64) *EligibilityFilter {
	if dailyCeilingKm <= 0 {
		dailyCeilingKm = DefaultDailyDistanceCeilingKm
	}
	return &EligibilityFilter{
		Routes:                 routes,
		Shops:                  shops,
		DailyDistanceCeilingKm: dailyCeilingKm,
		Log:                    logrus.StandardLogger(),
	}
}

// RouteSpan returns the great-circle distance between a route's first and last stop.
// Any missing shop or coordinates yields domain.ErrMissingShopData.
func (f *EligibilityFilter) RouteSpan(ctx context.Context, route *domain.Route) (float64, error) {
	first, ok := route.FirstStop()
	if !ok {
		return 0, fmt.Errorf("route span: route %s has no stops: %w", route.ID, domain.ErrPreconditionFailed)
	}
	last, _ := route.LastStop()

	from, err := f.shopLocation(ctx, first.ShopID)
	if err != nil {
		return 0, fmt.Errorf("route span: origin of route %s: %w", route.ID, err)
	}
	to, err := f.shopLocation(ctx, last.ShopID)
	if err != nil {
		return 0, fmt.Errorf("route span: destination of route %s: %w", route.ID, err)
	}

	return from.DistanceTo(to), nil
}

func (f *EligibilityFilter) shopLocation(ctx context.Context, shopID string) (domain.Coordinates, error) {
	shop, err := f.Shops.FindByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, domain.ErrShopNotFound) {
			return domain.Coordinates{}, fmt.Errorf("shop %s: %w: %w", shopID, domain.ErrMissingShopData, err)
		}
		return domain.Coordinates{}, fmt.Errorf("shop %s: %w", shopID, err)
	}
	return shop.Location()
}

// IsEligible reports whether staff may take route under zone's limits.
func (f *EligibilityFilter) IsEligible(
	ctx context.Context,
	route *domain.Route,
	staff *domain.Staff,
	zone *domain.DeliveryZone,
) (bool, error) {
	span, err := f.RouteSpan(ctx, route)
	if err != nil {
		return false, err
	}

	e, err := f.Evaluate(ctx, route, span, staff, zone)
	if err != nil {
		return false, err
	}
	return e.Eligible, nil
}

// Evaluate checks staff against route given the route's precomputed span.
//
// Checks run cheapest first: staff status, concurrent route count, the route's
// own span, then the combined span of every active route plus this one.
func (f *EligibilityFilter) Evaluate(
	ctx context.Context,
	route *domain.Route,
	spanKm float64,
	staff *domain.Staff,
	zone *domain.DeliveryZone,
) (Eligibility, error) {
	if !staff.IsActive() {
		return Eligibility{Reason: ReasonInactive}, nil
	}

	count, err := f.Routes.CountActiveForStaff(ctx, staff.ID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("evaluate eligibility: count active routes for staff %s: %w", staff.ID, err)
	}
	if count >= zone.Settings.MaxConcurrentRoutes {
		return Eligibility{Reason: ReasonMaxConcurrentRoutes, ActiveRoutes: count}, nil
	}

	if spanKm > float64(zone.Settings.MaxDistancePerRouteKm) {
		return Eligibility{Reason: ReasonMaxRouteDistance, ActiveRoutes: count}, nil
	}

	active, err := f.Routes.ListActiveForStaff(ctx, staff.ID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("evaluate eligibility: list active routes for staff %s: %w", staff.ID, err)
	}

	committed := 0.0
	for _, r := range active {
		if r.ID == route.ID {
			continue
		}
		s, err := f.RouteSpan(ctx, r)
		if err != nil {
			// A broken historical route must not block new work for everyone.
			f.logger().WithError(err).WithFields(logrus.Fields{
				"staff_id": staff.ID,
				"route_id": r.ID,
			}).Warn("skip active route with unknown span")
			continue
		}
		committed += s
	}

	if committed+spanKm > f.DailyDistanceCeilingKm {
		return Eligibility{Reason: ReasonDailyDistance, ActiveRoutes: count, ActiveDistanceKm: committed}, nil
	}

	return Eligibility{Eligible: true, ActiveRoutes: count, ActiveDistanceKm: committed}, nil
}

func (f *EligibilityFilter) logger() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}
