package services

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RoutePlanner creates new pending routes from an ordered list of shops.
type RoutePlanner struct {
	Routes ports.RouteRepository
	Shops  ports.ShopRepository
	Log    logrus.FieldLogger
	Now    func() time.Time
}

func NewRoutePlanner(routes ports.RouteRepository, shops ports.ShopRepository) *RoutePlanner {
	return &RoutePlanner{Routes: routes, Shops: shops, Log: logrus.StandardLogger(), Now: time.Now}
}

type CreateRouteRequest struct {
	ShopIDs []string
	// OptimizeOrder keeps the first shop as origin and orders the rest by
	// nearest neighbor. Every shop must then have coordinates.
	OptimizeOrder bool
}

// CreateRoute builds and stores a pending route visiting the requested shops.
//
// Total distance is the sum of great-circle legs between consecutive stops.
// Legs touching a shop without coordinates are left out of the total.
func (p *RoutePlanner) CreateRoute(ctx context.Context, req CreateRouteRequest) (*domain.Route, error) {
	shopIDs := req.ShopIDs
	if len(shopIDs) == 0 {
		return nil, fmt.Errorf("create route: stop list must not be empty: %w", domain.ErrPreconditionFailed)
	}

	ids := make([]string, 0, len(shopIDs))
	locations := make([]*domain.Coordinates, 0, len(shopIDs))
	for i, id := range shopIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("create route: stop %d has empty shop id: %w", i+1, domain.ErrPreconditionFailed)
		}

		shop, err := p.Shops.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("create route: stop %d: %w", i+1, err)
		}

		ids = append(ids, id)
		locations = append(locations, shop.Coordinates)
	}

	if req.OptimizeOrder {
		var err error
		ids, locations, err = optimizeOrder(ids, locations)
		if err != nil {
			return nil, fmt.Errorf("create route: %w", err)
		}
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	r := domain.NewRoute(ids, now)
	total, skipped := legDistance(locations)
	r.TotalDistanceKm = total

	if skipped > 0 {
		p.logger().WithFields(logrus.Fields{
			"route_id":     r.ID,
			"skipped_legs": skipped,
		}).Warn("route distance excludes legs without coordinates")
	}

	if err := p.Routes.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("create route: save: %w", err)
	}
	return r, nil
}

func optimizeOrder(ids []string, locations []*domain.Coordinates) ([]string, []*domain.Coordinates, error) {
	points := make([]ShopPoint, 0, len(ids))
	for i, id := range ids {
		if locations[i] == nil {
			return nil, nil, fmt.Errorf("optimize order: shop %s has no coordinates: %w", id, domain.ErrMissingShopData)
		}
		points = append(points, ShopPoint{ShopID: id, At: *locations[i]})
	}

	ordered, err := NearestNeighborOrder(points)
	if err != nil {
		return nil, nil, err
	}

	outIDs := make([]string, 0, len(ordered))
	outLocs := make([]*domain.Coordinates, 0, len(ordered))
	for _, p := range ordered {
		at := p.At
		outIDs = append(outIDs, p.ShopID)
		outLocs = append(outLocs, &at)
	}
	return outIDs, outLocs, nil
}

func legDistance(points []*domain.Coordinates) (total float64, skipped int) {
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if a == nil || b == nil {
			skipped++
			continue
		}
		total += a.DistanceTo(*b)
	}
	return total, skipped
}

func (p *RoutePlanner) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

// IsNotFound reports whether err means a route, staff, shop or stop does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrRouteNotFound) ||
		errors.Is(err, domain.ErrStaffNotFound) ||
		errors.Is(err, domain.ErrShopNotFound) ||
		errors.Is(err, domain.ErrStopNotFound)
}
