package domain

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func newTestRoute(status RouteStatus) *Route {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := NewRoute([]string{"shop-a", "shop-b", "shop-c"}, now)
	r.Status = status
	return r
}

func TestRouteTransitionClosure(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	for _, from := range AllRouteStatuses {
		for _, to := range AllRouteStatuses {
			r := newTestRoute(from)
			err := r.Transition(to, now)

			allowed := slices.Contains(from.AllowedNext(), to)
			if allowed {
				if err != nil {
					t.Errorf("%s -> %s: unexpected error: %v", from, to, err)
				}
				if r.Status != to {
					t.Errorf("%s -> %s: status = %s", from, to, r.Status)
				}
				continue
			}

			if err == nil {
				t.Errorf("%s -> %s: expected error", from, to)
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: error %v is not ErrInvalidTransition", from, to, err)
			}
			if r.Status != from {
				t.Errorf("%s -> %s: status changed to %s on failure", from, to, r.Status)
			}
		}
	}
}

func TestRouteTransitionTable(t *testing.T) {
	want := map[RouteStatus][]RouteStatus{
		RouteStatusPending:    {RouteStatusAssigned, RouteStatusCancelled},
		RouteStatusAssigned:   {RouteStatusDelivering, RouteStatusCancelled},
		RouteStatusDelivering: {RouteStatusDelivered, RouteStatusFailed},
		RouteStatusFailed:     {RouteStatusPending},
		RouteStatusDelivered:  {},
		RouteStatusCancelled:  {},
	}

	for from, next := range want {
		if got := from.AllowedNext(); !slices.Equal(got, next) {
			t.Errorf("AllowedNext(%s) = %v, want %v", from, got, next)
		}
	}

	if !RouteStatusDelivered.IsTerminal() || !RouteStatusCancelled.IsTerminal() {
		t.Errorf("delivered and cancelled must be terminal")
	}
}

func TestInvalidTransitionErrorNamesAllowedStates(t *testing.T) {
	r := newTestRoute(RouteStatusPending)
	err := r.Transition(RouteStatusDelivered, time.Now())

	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *InvalidTransitionError, got %T", err)
	}
	if te.From != RouteStatusPending || te.To != RouteStatusDelivered {
		t.Fatalf("unexpected edge %s -> %s", te.From, te.To)
	}
	msg := err.Error()
	if !strings.Contains(msg, "assigned") || !strings.Contains(msg, "cancelled") {
		t.Fatalf("message %q does not name allowed states", msg)
	}
}

func TestRouteLifecycleSideEffects(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := newTestRoute(RouteStatusPending)

	if err := r.AssignTo("staff-1", t0); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if r.AssignedAt == nil || !r.AssignedAt.Equal(t0) {
		t.Fatalf("AssignedAt = %v, want %v", r.AssignedAt, t0)
	}
	if r.AssignedStaffID == nil || *r.AssignedStaffID != "staff-1" {
		t.Fatalf("AssignedStaffID = %v", r.AssignedStaffID)
	}

	start := t0.Add(10 * time.Minute)
	if err := r.Transition(RouteStatusDelivering, start); err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.StartedAt == nil || !r.StartedAt.Equal(start) {
		t.Fatalf("StartedAt = %v, want %v", r.StartedAt, start)
	}

	done := start.Add(95*time.Minute + 20*time.Second)
	if err := r.Transition(RouteStatusDelivered, done); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if r.CompletedAt == nil || !r.CompletedAt.Equal(done) {
		t.Fatalf("CompletedAt = %v, want %v", r.CompletedAt, done)
	}
	if r.Metrics.ActualDurationMinutes == nil || *r.Metrics.ActualDurationMinutes != 95 {
		t.Fatalf("ActualDurationMinutes = %v, want 95", r.Metrics.ActualDurationMinutes)
	}
}

func TestRouteDeliveredWithoutStartLeavesDurationUnset(t *testing.T) {
	r := newTestRoute(RouteStatusDelivering)
	if err := r.Transition(RouteStatusDelivered, time.Now()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if r.CompletedAt == nil {
		t.Fatalf("CompletedAt not set")
	}
	if r.Metrics.ActualDurationMinutes != nil {
		t.Fatalf("ActualDurationMinutes = %d, want unset", *r.Metrics.ActualDurationMinutes)
	}
}

func TestRouteRetryResetsOwnership(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := newTestRoute(RouteStatusPending)
	if err := r.AssignTo("staff-1", now); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition(RouteStatusDelivering, now); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition(RouteStatusFailed, now); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition(RouteStatusPending, now); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if r.AssignedStaffID != nil || r.AssignedAt != nil || r.StartedAt != nil {
		t.Fatalf("retry kept ownership: staff=%v assigned=%v started=%v", r.AssignedStaffID, r.AssignedAt, r.StartedAt)
	}
}

func TestRouteMetricsFollowStops(t *testing.T) {
	now := time.Now()
	r := newTestRoute(RouteStatusDelivering)

	if r.Metrics.TotalOrders != len(r.Stops) {
		t.Fatalf("TotalOrders = %d, want %d", r.Metrics.TotalOrders, len(r.Stops))
	}

	if err := r.UpdateStop(1, StopStatusCompleted, now); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateStop(2, StopStatusSkipped, now); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateStop(3, StopStatusArrived, now); err != nil {
		t.Fatal(err)
	}

	if r.Metrics.TotalOrders != 3 || r.Metrics.CompletedOrders != 1 || r.Metrics.FailedOrders != 1 {
		t.Fatalf("metrics = %+v", r.Metrics)
	}
	if r.Stops[0].ActualArrival == nil || r.Stops[2].ActualArrival == nil {
		t.Fatalf("arrival not recorded")
	}
	if r.Stops[1].ActualArrival != nil {
		t.Fatalf("skipped stop should not record arrival")
	}

	if err := r.UpdateStop(9, StopStatusCompleted, now); !errors.Is(err, ErrStopNotFound) {
		t.Fatalf("err = %v, want ErrStopNotFound", err)
	}
}

func TestRouteStatusDeletable(t *testing.T) {
	want := map[RouteStatus]bool{
		RouteStatusPending:    true,
		RouteStatusCancelled:  true,
		RouteStatusFailed:     true,
		RouteStatusAssigned:   false,
		RouteStatusDelivering: false,
		RouteStatusDelivered:  false,
	}
	for s, ok := range want {
		if s.Deletable() != ok {
			t.Errorf("%s.Deletable() = %v, want %v", s, !ok, ok)
		}
	}
}

func TestRouteCloneIsDeep(t *testing.T) {
	r := newTestRoute(RouteStatusPending)
	if err := r.AssignTo("staff-1", time.Now()); err != nil {
		t.Fatal(err)
	}

	c := r.Clone()
	c.Stops[0].Status = StopStatusCompleted
	*c.AssignedStaffID = "other"

	if r.Stops[0].Status != StopStatusPending {
		t.Fatalf("clone shares stops")
	}
	if *r.AssignedStaffID != "staff-1" {
		t.Fatalf("clone shares staff pointer")
	}
}

func TestNewRouteCode(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	code := NewRouteCode(now)
	if !strings.HasPrefix(code, "RT-20260304-") || len(code) != len("RT-20260304-")+8 {
		t.Fatalf("unexpected code %q", code)
	}
	if NewRouteCode(now) == code {
		t.Fatalf("codes should be unique")
	}
}
