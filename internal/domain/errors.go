package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the dispatch engine. Wrap them with context using
// fmt.Errorf("op: detail: %w", err) and match with errors.Is.
var (
	// ErrInvalidTransition is returned when a status change is not on the allowed-edge list.
	ErrInvalidTransition = errors.New("invalid route status transition")

	// ErrNoZoneFound is returned when no active zone covers a district.
	ErrNoZoneFound = errors.New("no active delivery zone covers district")

	// ErrMissingShopData is returned when a stop's shop lacks a district or coordinates.
	ErrMissingShopData = errors.New("missing shop data")

	// ErrNoEligibleStaff is returned when no zone staff passes the eligibility filter.
	ErrNoEligibleStaff = errors.New("no eligible staff")

	// ErrPreconditionFailed is returned when a route is not in a state the operation accepts.
	ErrPreconditionFailed = errors.New("precondition failed")

	ErrRouteNotFound     = errors.New("route not found")
	ErrStaffNotFound     = errors.New("staff not found")
	ErrShopNotFound      = errors.New("shop not found")
	ErrStopNotFound      = errors.New("stop not found")
	ErrRouteNotDeletable = errors.New("route cannot be deleted in its current status")
)

// InvalidTransitionError names the rejected edge and the statuses that were allowed.
type InvalidTransitionError struct {
	From    RouteStatus
	To      RouteStatus
	Allowed []RouteStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		allowed = append(allowed, string(s))
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("cannot change route status from %q to %q: %q is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot change route status from %q to %q: allowed [%s]", e.From, e.To, strings.Join(allowed, ", "))
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
