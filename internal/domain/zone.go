package domain

import (
	"fmt"
	"slices"
)

type ZoneStatus string

const (
	ZoneStatusActive   ZoneStatus = "active"
	ZoneStatusInactive ZoneStatus = "inactive"
)

// District identifies an administrative district inside a province.
type District struct {
	ProvinceID string `json:"province_id"`
	DistrictID string `json:"district_id"`
}

// ZoneSettings are the operating limits a zone imposes on its staff.
type ZoneSettings struct {
	MaxConcurrentRoutes   int `json:"max_concurrent_routes" validate:"gt=0"`
	MaxDistancePerRouteKm int `json:"max_distance_per_route" validate:"gt=0"`
}

// Validate checks that both limits are positive.
func (s ZoneSettings) Validate() error {
	if s.MaxConcurrentRoutes <= 0 {
		return fmt.Errorf("zone settings: max concurrent routes must be positive, got %d", s.MaxConcurrentRoutes)
	}
	if s.MaxDistancePerRouteKm <= 0 {
		return fmt.Errorf("zone settings: max distance per route must be positive, got %d", s.MaxDistancePerRouteKm)
	}
	return nil
}

// DeliveryZone is a named coverage area with its own staff roster and limits.
// StaffIDs is a weak reference list; staff lifecycle is independent of the zone.
type DeliveryZone struct {
	ID        string
	Name      string
	Districts []District
	StaffIDs  []string
	Settings  ZoneSettings
	Status    ZoneStatus
}

// Covers reports whether the zone owns districtID.
func (z *DeliveryZone) Covers(districtID string) bool {
	return slices.ContainsFunc(z.Districts, func(d District) bool { return d.DistrictID == districtID })
}

// IsActive reports whether the zone takes part in assignment.
func (z *DeliveryZone) IsActive() bool { return z.Status == ZoneStatusActive }
