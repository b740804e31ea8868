// Package events implements ports.RouteEventPublisher over message brokers.
package events

import (
	"context"
	"delivery-dispatch-service/internal/ports"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Encode serializes a route status event as the JSON payload every broker receives.
func Encode(evt ports.RouteStatusChanged) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode route status event %s: %w", evt.RouteID, err)
	}
	return b, nil
}

// RoutingKey is the broker routing key for evt, e.g. "route.delivered".
func RoutingKey(evt ports.RouteStatusChanged) string {
	return "route." + string(evt.To)
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	Log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogPublisher{Log: log}
}

func (p *LogPublisher) PublishRouteStatus(ctx context.Context, evt ports.RouteStatusChanged) error {
	p.Log.WithFields(logrus.Fields{
		"route_id":     evt.RouteID,
		"route_code":   evt.RouteCode,
		"from":         evt.From,
		"to":           evt.To,
		"order_status": evt.OrderStatus,
		"staff_id":     evt.StaffID,
	}).Info("route status event")
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishRouteStatus(context.Context, ports.RouteStatusChanged) error { return nil }
