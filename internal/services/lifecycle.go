package services

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/platform/obs"
	"delivery-dispatch-service/internal/ports"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RouteLifecycle is the only place route statuses change.
// Every change is validated against the domain transition table, persisted in
// one transaction and announced to downstream collaborators after commit.
type RouteLifecycle struct {
	Routes    ports.RouteRepository
	Tx        ports.Transactor
	Publisher ports.RouteEventPublisher
	Metrics   ports.DispatchMetrics
	Log       logrus.FieldLogger
	Now       func() time.Time
}

func NewRouteLifecycle(
	routes ports.RouteRepository,
	tx ports.Transactor,
	publisher ports.RouteEventPublisher,
	metrics ports.DispatchMetrics,
) *RouteLifecycle {
	return &RouteLifecycle{
		Routes:    routes,
		Tx:        tx,
		Publisher: publisher,
		Metrics:   metrics,
		Log:       logrus.StandardLogger(),
		Now:       time.Now,
	}
}

// GetRoute returns the route with the given id.
func (l *RouteLifecycle) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	r, err := l.Routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return r, nil
}

// TransitionRoute moves a route to next. It fails with a
// *domain.InvalidTransitionError when next is not allowed from the current status.
func (l *RouteLifecycle) TransitionRoute(ctx context.Context, routeID string, next domain.RouteStatus) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "route.transition")(&err)

	var (
		updated *domain.Route
		from    domain.RouteStatus
	)

	err = l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := l.Routes.FindByIDForUpdate(ctx, routeID)
		if err != nil {
			return err
		}

		from = r.Status
		// The pending->assigned edge needs a staff member; it goes through
		// Assigner.AssignBest or Assigner.ClaimRoute.
		if next == domain.RouteStatusAssigned && r.Status.CanTransitionTo(next) {
			return fmt.Errorf("assigning requires a staff member: %w", domain.ErrPreconditionFailed)
		}
		if err := r.Transition(next, l.now()); err != nil {
			return err
		}
		if err := l.Routes.Save(ctx, r); err != nil {
			return fmt.Errorf("save route: %w", err)
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transition route %s to %s: %w", routeID, next, err)
	}

	l.announce(ctx, updated, from)
	return updated, nil
}

// UpdateStop records progress on one stop of an assigned or delivering route.
func (l *RouteLifecycle) UpdateStop(ctx context.Context, routeID string, sequence int, status domain.StopStatus) (*domain.Route, error) {
	var updated *domain.Route

	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := l.Routes.FindByIDForUpdate(ctx, routeID)
		if err != nil {
			return err
		}

		if !r.Status.IsActive() {
			return fmt.Errorf("route is %s, stops change only while assigned or delivering: %w", r.Status, domain.ErrPreconditionFailed)
		}
		if err := r.UpdateStop(sequence, status, l.now()); err != nil {
			return err
		}
		if err := l.Routes.Save(ctx, r); err != nil {
			return fmt.Errorf("save route: %w", err)
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update stop %d of route %s: %w", sequence, routeID, err)
	}

	return updated, nil
}

// DeleteRoute removes a pending, cancelled or failed route.
func (l *RouteLifecycle) DeleteRoute(ctx context.Context, routeID string) error {
	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := l.Routes.FindByIDForUpdate(ctx, routeID)
		if err != nil {
			return err
		}
		if !r.Status.Deletable() {
			return fmt.Errorf("route is %s: %w", r.Status, domain.ErrRouteNotDeletable)
		}
		return l.Routes.Delete(ctx, routeID)
	})
	if err != nil {
		return fmt.Errorf("delete route %s: %w", routeID, err)
	}

	l.logger().WithField("route_id", routeID).Info("route deleted")
	return nil
}

// assign drives a pending route to assigned for staffID and saves it.
// It must run inside the caller's transaction; announce after commit.
func (l *RouteLifecycle) assign(ctx context.Context, r *domain.Route, staffID string, now time.Time) error {
	if err := r.AssignTo(staffID, now); err != nil {
		return err
	}
	if err := l.Routes.Save(ctx, r); err != nil {
		return fmt.Errorf("save route: %w", err)
	}
	return nil
}

// announce records a committed status change and propagates it to the orders
// the route fulfills. Publish failures are logged, never returned.
func (l *RouteLifecycle) announce(ctx context.Context, r *domain.Route, from domain.RouteStatus) {
	l.metrics().ObserveTransition(from, r.Status)

	evt := ports.RouteStatusChanged{
		RouteID:     r.ID,
		RouteCode:   r.Code,
		From:        from,
		To:          r.Status,
		OrderStatus: domain.OrderStatusFor(r.Status),
		OccurredAt:  r.UpdatedAt,
	}
	if r.AssignedStaffID != nil {
		evt.StaffID = *r.AssignedStaffID
	}

	log := l.logger().WithFields(logrus.Fields{
		"route_id": r.ID,
		"from":     from,
		"to":       r.Status,
	})
	log.Info("route status changed")

	if l.Publisher == nil {
		return
	}
	if err := l.Publisher.PublishRouteStatus(ctx, evt); err != nil {
		log.WithError(err).Error("publish route status event failed")
	}
}

func (l *RouteLifecycle) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *RouteLifecycle) logger() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

func (l *RouteLifecycle) metrics() ports.DispatchMetrics {
	if l.Metrics == nil {
		return nopMetrics{}
	}
	return l.Metrics
}

type nopMetrics struct{}

func (nopMetrics) ObserveAssignment(string, time.Duration)                  {}
func (nopMetrics) ObserveTransition(domain.RouteStatus, domain.RouteStatus) {}
func (nopMetrics) ObserveBatch(int, int)                                    {}
