package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RouteStatus is the lifecycle state of a delivery route.
type RouteStatus string

const (
	RouteStatusPending    RouteStatus = "pending"
	RouteStatusAssigned   RouteStatus = "assigned"
	RouteStatusDelivering RouteStatus = "delivering"
	RouteStatusDelivered  RouteStatus = "delivered"
	RouteStatusFailed     RouteStatus = "failed"
	RouteStatusCancelled  RouteStatus = "cancelled"
)

// AllRouteStatuses lists every known route status in lifecycle order.
var AllRouteStatuses = []RouteStatus{
	RouteStatusPending,
	RouteStatusAssigned,
	RouteStatusDelivering,
	RouteStatusDelivered,
	RouteStatusFailed,
	RouteStatusCancelled,
}

// routeTransitions is the single transition table applied to every status change.
var routeTransitions = map[RouteStatus][]RouteStatus{
	RouteStatusPending:    {RouteStatusAssigned, RouteStatusCancelled},
	RouteStatusAssigned:   {RouteStatusDelivering, RouteStatusCancelled},
	RouteStatusDelivering: {RouteStatusDelivered, RouteStatusFailed},
	RouteStatusFailed:     {RouteStatusPending},
	RouteStatusDelivered:  {},
	RouteStatusCancelled:  {},
}

// ParseRouteStatus converts s into a known RouteStatus.
func ParseRouteStatus(s string) (RouteStatus, error) {
	st := RouteStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := routeTransitions[st]; !ok {
		return "", fmt.Errorf("parse route status: unknown status %q", s)
	}
	return st, nil
}

// AllowedNext returns a copy of the statuses reachable from s.
func (s RouteStatus) AllowedNext() []RouteStatus {
	return slices.Clone(routeTransitions[s])
}

// CanTransitionTo reports whether next is on the allowed-edge list for s.
func (s RouteStatus) CanTransitionTo(next RouteStatus) bool {
	return slices.Contains(routeTransitions[s], next)
}

// IsActive reports whether a route in this status counts toward staff workload.
func (s RouteStatus) IsActive() bool {
	return s == RouteStatusAssigned || s == RouteStatusDelivering
}

// IsTerminal reports whether no further transitions leave s.
func (s RouteStatus) IsTerminal() bool {
	return len(routeTransitions[s]) == 0
}

// Deletable reports whether a route in this status may be removed.
// Assigned, delivering and delivered routes are kept for audit history.
func (s RouteStatus) Deletable() bool {
	switch s {
	case RouteStatusPending, RouteStatusCancelled, RouteStatusFailed:
		return true
	default:
		return false
	}
}

// StopStatus is the progress of a single stop on a route.
type StopStatus string

const (
	StopStatusPending   StopStatus = "pending"
	StopStatusArrived   StopStatus = "arrived"
	StopStatusCompleted StopStatus = "completed"
	StopStatusSkipped   StopStatus = "skipped"
)

// ParseStopStatus converts s into a known StopStatus.
func ParseStopStatus(s string) (StopStatus, error) {
	switch st := StopStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StopStatusPending, StopStatusArrived, StopStatusCompleted, StopStatusSkipped:
		return st, nil
	default:
		return "", fmt.Errorf("parse stop status: unknown status %q", s)
	}
}

// Represents a single stop in a delivery route.
// Sequence numbers are 1-based and follow the visiting order.
type RouteStop struct {
	ShopID           string
	Sequence         int
	Status           StopStatus
	EstimatedArrival *time.Time
	ActualArrival    *time.Time
}

// RouteMetrics is derived from the stop list and status; never edited directly.
type RouteMetrics struct {
	TotalOrders           int
	CompletedOrders       int
	FailedOrders          int
	ActualDurationMinutes *int
}

// Route is one delivery job visiting an ordered sequence of stops.
// It is assigned to at most one staff member at a time.
type Route struct {
	ID              string
	Code            string
	Stops           []RouteStop
	TotalDistanceKm float64
	AssignedStaffID *string
	Status          RouteStatus
	AssignedAt      *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Metrics         RouteMetrics
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewRoute builds a pending route with numbered stops and fresh metrics.
func NewRoute(shopIDs []string, now time.Time) *Route {
	stops := make([]RouteStop, 0, len(shopIDs))
	for i, id := range shopIDs {
		stops = append(stops, RouteStop{
			ShopID:   id,
			Sequence: i + 1,
			Status:   StopStatusPending,
		})
	}

	r := &Route{
		ID:        uuid.NewString(),
		Code:      NewRouteCode(now),
		Stops:     stops,
		Status:    RouteStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.RecomputeMetrics()
	return r
}

// NewRouteCode returns a human-readable unique route code such as RT-20260115-1A2B3C4D.
func NewRouteCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RT-%s-%s", now.UTC().Format("20060102"), suffix)
}

// FirstStop returns the origin stop, or false when the route has no stops.
func (r *Route) FirstStop() (RouteStop, bool) {
	if len(r.Stops) == 0 {
		return RouteStop{}, false
	}
	return r.Stops[0], true
}

// LastStop returns the destination stop, or false when the route has no stops.
func (r *Route) LastStop() (RouteStop, bool) {
	if len(r.Stops) == 0 {
		return RouteStop{}, false
	}
	return r.Stops[len(r.Stops)-1], true
}

// Transition moves the route to next, applying lifecycle side effects.
// On error the route is left untouched.
func (r *Route) Transition(next RouteStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: r.Status, To: next, Allowed: r.Status.AllowedNext()}
	}

	switch next {
	case RouteStatusAssigned:
		if r.AssignedAt == nil {
			r.AssignedAt = timePtr(now)
		}
	case RouteStatusDelivering:
		if r.StartedAt == nil {
			r.StartedAt = timePtr(now)
		}
	case RouteStatusDelivered:
		if r.CompletedAt == nil {
			r.CompletedAt = timePtr(now)
			if r.StartedAt != nil {
				mins := int(math.Round(r.CompletedAt.Sub(*r.StartedAt).Minutes()))
				r.Metrics.ActualDurationMinutes = &mins
			}
		}
	case RouteStatusPending:
		// Retry: the route re-enters the assignment pool unowned.
		r.AssignedStaffID = nil
		r.AssignedAt = nil
		r.StartedAt = nil
	}

	r.Status = next
	r.UpdatedAt = now
	r.RecomputeMetrics()
	return nil
}

// AssignTo transitions a pending route to assigned and records the staff member.
func (r *Route) AssignTo(staffID string, now time.Time) error {
	if strings.TrimSpace(staffID) == "" {
		return fmt.Errorf("assign route %s: staff id must not be empty: %w", r.ID, ErrPreconditionFailed)
	}
	if err := r.Transition(RouteStatusAssigned, now); err != nil {
		return err
	}
	r.AssignedStaffID = &staffID
	r.AssignedAt = timePtr(now)
	return nil
}

// UpdateStop sets the status of the stop with the given sequence number.
func (r *Route) UpdateStop(sequence int, status StopStatus, now time.Time) error {
	for i := range r.Stops {
		if r.Stops[i].Sequence != sequence {
			continue
		}

		stop := &r.Stops[i]
		stop.Status = status
		if (status == StopStatusArrived || status == StopStatusCompleted) && stop.ActualArrival == nil {
			stop.ActualArrival = timePtr(now)
		}

		r.UpdatedAt = now
		r.RecomputeMetrics()
		return nil
	}

	return fmt.Errorf("update stop: route %s has no stop %d: %w", r.ID, sequence, ErrStopNotFound)
}

// RecomputeMetrics rebuilds the stop counters from the current stop list.
func (r *Route) RecomputeMetrics() {
	completed, failed := 0, 0
	for _, s := range r.Stops {
		switch s.Status {
		case StopStatusCompleted:
			completed++
		case StopStatusSkipped:
			failed++
		}
	}

	r.Metrics.TotalOrders = len(r.Stops)
	r.Metrics.CompletedOrders = completed
	r.Metrics.FailedOrders = failed
}

// Clone returns a deep copy of the route.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}

	c := *r
	c.Stops = make([]RouteStop, len(r.Stops))
	for i, s := range r.Stops {
		s.EstimatedArrival = copyTime(s.EstimatedArrival)
		s.ActualArrival = copyTime(s.ActualArrival)
		c.Stops[i] = s
	}
	if r.AssignedStaffID != nil {
		id := *r.AssignedStaffID
		c.AssignedStaffID = &id
	}
	if r.Metrics.ActualDurationMinutes != nil {
		m := *r.Metrics.ActualDurationMinutes
		c.Metrics.ActualDurationMinutes = &m
	}
	c.AssignedAt = copyTime(r.AssignedAt)
	c.StartedAt = copyTime(r.StartedAt)
	c.CompletedAt = copyTime(r.CompletedAt)
	return &c
}

// OrderStatusFor maps a route status to the status its orders should carry.
// Pending has no order-facing counterpart and yields "".
func OrderStatusFor(s RouteStatus) string {
	switch s {
	case RouteStatusAssigned:
		return "assigned"
	case RouteStatusDelivering:
		return "in_transit"
	case RouteStatusDelivered:
		return "delivered"
	case RouteStatusCancelled:
		return "cancelled"
	case RouteStatusFailed:
		return "delivery_failed"
	default:
		return ""
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
