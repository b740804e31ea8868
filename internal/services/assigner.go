package services

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/platform/obs"
	"delivery-dispatch-service/internal/ports"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

// Assignment outcomes reported to DispatchMetrics.
const (
	OutcomeAssigned        = "assigned"
	OutcomeNoZone          = "no_zone"
	OutcomeMissingShopData = "missing_shop"
	OutcomeNoEligibleStaff = "no_eligible_staff"
	OutcomePrecondition    = "precondition"
	OutcomeError           = "error"
)

// AssignmentResult describes a successful assignment.
type AssignmentResult struct {
	RouteID    string
	StaffID    string
	ZoneID     string
	Score      float64
	Candidates int
	Route      *domain.Route
}

// Assigner matches pending routes to the best available staff member of the
// zone covering the route's destination.
type Assigner struct {
	Routes      ports.RouteRepository
	Zones       ports.ZoneRepository
	Staff       ports.StaffRepository
	Shops       ports.ShopRepository
	Tx          ports.Transactor
	Locker      ports.ZoneLocker
	Lifecycle   *RouteLifecycle
	Eligibility *EligibilityFilter
	Scorer      *Scorer
	Metrics     ports.DispatchMetrics
	Log         logrus.FieldLogger
	Now         func() time.Time
}

// destination is everything the engine resolves about a route before taking the zone lock.
type destination struct {
	DistrictID string
	Zone       *domain.DeliveryZone
	SpanKm     float64
}

// AssignBest picks the fittest eligible staff member for a pending route and
// assigns the route to them. On any error the route is left unchanged.
func (a *Assigner) AssignBest(ctx context.Context, routeID string) (_ *AssignmentResult, err error) {
	defer obs.Time(ctx, "route.assign_best")(&err)

	start := time.Now()
	defer func() { a.metrics().ObserveAssignment(outcomeOf(err), time.Since(start)) }()

	route, err := a.Routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("assign route %s: %w", routeID, err)
	}
	if err := checkAssignable(route); err != nil {
		return nil, fmt.Errorf("assign route %s: %w", routeID, err)
	}

	dest, err := a.resolveDestination(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("assign route %s: %w", routeID, err)
	}

	unlock, err := a.Locker.Lock(ctx, dest.Zone.ID)
	if err != nil {
		return nil, fmt.Errorf("assign route %s: lock zone %s: %w", routeID, dest.Zone.ID, err)
	}
	defer unlock()

	var (
		result *AssignmentResult
		from   domain.RouteStatus
	)

	err = a.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := a.Routes.FindByIDForUpdate(ctx, routeID)
		if err != nil {
			return err
		}
		// Another caller may have assigned the route while we waited for the lock.
		if err := checkAssignable(r); err != nil {
			return err
		}
		// Staff can sit on several rosters, so the zone lock alone does not
		// keep their workload still. Counts below are taken after this.
		if err := a.Staff.LockForAssignment(ctx, dest.Zone.StaffIDs); err != nil {
			return err
		}

		candidates, err := a.eligibleCandidates(ctx, r, dest)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("zone %s has %d staff, none eligible: %w", dest.Zone.ID, len(dest.Zone.StaffIDs), domain.ErrNoEligibleStaff)
		}

		scored := make([]ScoredCandidate, 0, len(candidates))
		for _, c := range candidates {
			scored = append(scored, ScoredCandidate{
				Candidate: c,
				Score:     a.Scorer.Score(c.Staff, dest.DistrictID, c.ActiveRoutes),
			})
		}
		best := PickBest(scored)

		from = r.Status
		if err := a.Lifecycle.assign(ctx, r, best.Staff.ID, a.now()); err != nil {
			return err
		}

		result = &AssignmentResult{
			RouteID:    r.ID,
			StaffID:    best.Staff.ID,
			ZoneID:     dest.Zone.ID,
			Score:      best.Score,
			Candidates: len(candidates),
			Route:      r,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assign route %s: %w", routeID, err)
	}

	a.logger().WithFields(logrus.Fields{
		"route_id":   result.RouteID,
		"staff_id":   result.StaffID,
		"zone_id":    result.ZoneID,
		"score":      result.Score,
		"candidates": result.Candidates,
	}).Info("route assigned")

	a.Lifecycle.announce(ctx, result.Route, from)
	return result, nil
}

// ClaimRoute lets a staff member take a pending route themselves. The claim is
// checked by the same eligibility rules the automatic assignment uses.
func (a *Assigner) ClaimRoute(ctx context.Context, routeID, staffID string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "route.claim")(&err)

	route, err := a.Routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("claim route %s: %w", routeID, err)
	}
	if err := checkAssignable(route); err != nil {
		return nil, fmt.Errorf("claim route %s: %w", routeID, err)
	}

	staff, err := a.Staff.FindByID(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("claim route %s: %w", routeID, err)
	}

	dest, err := a.resolveDestination(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("claim route %s: %w", routeID, err)
	}
	if !slices.Contains(dest.Zone.StaffIDs, staffID) {
		return nil, fmt.Errorf("claim route %s: staff %s is not on the roster of zone %s: %w", routeID, staffID, dest.Zone.ID, domain.ErrNoEligibleStaff)
	}

	unlock, err := a.Locker.Lock(ctx, dest.Zone.ID)
	if err != nil {
		return nil, fmt.Errorf("claim route %s: lock zone %s: %w", routeID, dest.Zone.ID, err)
	}
	defer unlock()

	var claimed *domain.Route
	err = a.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := a.Routes.FindByIDForUpdate(ctx, routeID)
		if err != nil {
			return err
		}
		if err := checkAssignable(r); err != nil {
			return err
		}
		if err := a.Staff.LockForAssignment(ctx, []string{staffID}); err != nil {
			return err
		}

		e, err := a.Eligibility.Evaluate(ctx, r, dest.SpanKm, staff, dest.Zone)
		if err != nil {
			return err
		}
		if !e.Eligible {
			return fmt.Errorf("staff %s refused (%s): %w", staffID, e.Reason, domain.ErrNoEligibleStaff)
		}

		if err := a.Lifecycle.assign(ctx, r, staffID, a.now()); err != nil {
			return err
		}
		claimed = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim route %s: %w", routeID, err)
	}

	a.Lifecycle.announce(ctx, claimed, domain.RouteStatusPending)
	return claimed, nil
}

// resolveDestination looks up the zone by the route's last stop, where the goods end up.
func (a *Assigner) resolveDestination(ctx context.Context, route *domain.Route) (destination, error) {
	last, _ := route.LastStop()

	shop, err := a.Shops.FindByID(ctx, last.ShopID)
	if err != nil {
		if errors.Is(err, domain.ErrShopNotFound) {
			return destination{}, fmt.Errorf("destination shop %s: %w: %w", last.ShopID, domain.ErrMissingShopData, err)
		}
		return destination{}, fmt.Errorf("destination shop %s: %w", last.ShopID, err)
	}

	district, err := shop.District()
	if err != nil {
		return destination{}, err
	}

	zone, err := a.Zones.FindActiveZoneByDistrict(ctx, district)
	if err != nil {
		return destination{}, fmt.Errorf("find zone for district %s: %w", district, err)
	}

	span, err := a.Eligibility.RouteSpan(ctx, route)
	if err != nil {
		return destination{}, err
	}

	return destination{DistrictID: district, Zone: zone, SpanKm: span}, nil
}

// eligibleCandidates evaluates every active staff member on the zone roster, in roster order.
func (a *Assigner) eligibleCandidates(ctx context.Context, route *domain.Route, dest destination) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(dest.Zone.StaffIDs))

	for _, id := range dest.Zone.StaffIDs {
		staff, err := a.Staff.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrStaffNotFound) {
				a.logger().WithFields(logrus.Fields{"zone_id": dest.Zone.ID, "staff_id": id}).
					Warn("zone roster references unknown staff")
				continue
			}
			return nil, fmt.Errorf("load staff %s: %w", id, err)
		}
		if !staff.IsActive() {
			continue
		}

		e, err := a.Eligibility.Evaluate(ctx, route, dest.SpanKm, staff, dest.Zone)
		if err != nil {
			return nil, err
		}
		if !e.Eligible {
			a.logger().WithFields(logrus.Fields{
				"route_id": route.ID,
				"staff_id": id,
				"reason":   e.Reason,
			}).Debug("staff not eligible")
			continue
		}

		candidates = append(candidates, Candidate{
			Staff:            staff,
			ActiveRoutes:     e.ActiveRoutes,
			ActiveDistanceKm: e.ActiveDistanceKm,
		})
	}

	return candidates, nil
}

func checkAssignable(r *domain.Route) error {
	if r.Status != domain.RouteStatusPending {
		return fmt.Errorf("route %s is %s, want %s: %w", r.ID, r.Status, domain.RouteStatusPending, domain.ErrPreconditionFailed)
	}
	if len(r.Stops) == 0 {
		return fmt.Errorf("route %s has no stops: %w", r.ID, domain.ErrPreconditionFailed)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeAssigned
	case errors.Is(err, domain.ErrNoZoneFound):
		return OutcomeNoZone
	case errors.Is(err, domain.ErrMissingShopData):
		return OutcomeMissingShopData
	case errors.Is(err, domain.ErrNoEligibleStaff):
		return OutcomeNoEligibleStaff
	case errors.Is(err, domain.ErrPreconditionFailed):
		return OutcomePrecondition
	default:
		return OutcomeError
	}
}

func (a *Assigner) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Assigner) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

func (a *Assigner) metrics() ports.DispatchMetrics {
	if a.Metrics == nil {
		return nopMetrics{}
	}
	return a.Metrics
}
