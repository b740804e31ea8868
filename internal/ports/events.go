package ports

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"time"
)

// RouteStatusChanged is emitted after a route status change is committed so
// that the orders fulfilled by the route can advance in lockstep.
type RouteStatusChanged struct {
	RouteID     string             `json:"route_id"`
	RouteCode   string             `json:"route_code"`
	From        domain.RouteStatus `json:"from"`
	To          domain.RouteStatus `json:"to"`
	OrderStatus string             `json:"order_status,omitempty"`
	StaffID     string             `json:"staff_id,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Contract for delivering route status events to downstream collaborators.
type RouteEventPublisher interface {
	PublishRouteStatus(ctx context.Context, evt RouteStatusChanged) error
}

// DispatchMetrics receives engine observations.
type DispatchMetrics interface {
	ObserveAssignment(outcome string, dur time.Duration)
	ObserveTransition(from, to domain.RouteStatus)
	ObserveBatch(succeeded, failed int)
}
