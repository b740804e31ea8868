// Package seed loads demo datasets of shops, staff, zones and routes from JSON.
package seed

import (
	"delivery-dispatch-service/internal/domain"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

type ShopSeed struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name"`
	Lat        *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon        *float64 `json:"lon" validate:"omitempty,longitude"`
	ProvinceID string   `json:"province_id"`
	DistrictID string   `json:"district_id"`
}

type StaffSeed struct {
	ID                    string                    `json:"id" validate:"required"`
	Name                  string                    `json:"name"`
	Status                string                    `json:"status" validate:"omitempty,oneof=active inactive"`
	DeliveryMetrics       domain.DeliveryMetrics    `json:"delivery_metrics"`
	FamiliarDistricts     []domain.FamiliarDistrict `json:"familiar_districts"`
	PreferredWorkingHours *domain.WorkingHours      `json:"preferred_working_hours"`
	RecentRejections      []domain.Rejection        `json:"recent_rejections"`
}

type ZoneSeed struct {
	ID        string              `json:"id" validate:"required"`
	Name      string              `json:"name" validate:"required"`
	Status    string              `json:"status" validate:"omitempty,oneof=active inactive"`
	Districts []domain.District   `json:"districts" validate:"dive"`
	StaffIDs  []string            `json:"staff"`
	Settings  domain.ZoneSettings `json:"settings"`
}

type RouteSeed struct {
	ID      string   `json:"id" validate:"required"`
	Code    string   `json:"code"`
	ShopIDs []string `json:"shop_ids" validate:"required,min=1,dive,required"`
}

// Dataset is the top-level seed file shape.
type Dataset struct {
	Shops  []ShopSeed  `json:"shops" validate:"dive"`
	Staff  []StaffSeed `json:"staff" validate:"dive"`
	Zones  []ZoneSeed  `json:"zones" validate:"dive"`
	Routes []RouteSeed `json:"routes" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a dataset file.
func Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %q: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a dataset.
func Parse(b []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("seed: parse json: %w", err)
	}
	if err := validate.Struct(ds); err != nil {
		return nil, fmt.Errorf("seed: validate: %w", err)
	}
	for _, z := range ds.Zones {
		if err := z.Settings.Validate(); err != nil {
			return nil, fmt.Errorf("seed: zone %s: %w", z.ID, err)
		}
	}
	return &ds, nil
}

func (s ShopSeed) Shop() *domain.Shop {
	shop := &domain.Shop{
		ID:         s.ID,
		Name:       s.Name,
		ProvinceID: s.ProvinceID,
		DistrictID: s.DistrictID,
	}
	if s.Lat != nil && s.Lon != nil {
		shop.Coordinates = &domain.Coordinates{Lat: *s.Lat, Lon: *s.Lon}
	}
	return shop
}

func (s StaffSeed) Staff() *domain.Staff {
	status := domain.StaffStatus(s.Status)
	if status == "" {
		status = domain.StaffStatusActive
	}
	return &domain.Staff{
		ID:                    s.ID,
		Name:                  s.Name,
		Status:                status,
		DeliveryMetrics:       s.DeliveryMetrics,
		FamiliarDistricts:     s.FamiliarDistricts,
		PreferredWorkingHours: s.PreferredWorkingHours,
		DeliveryHistory:       domain.DeliveryHistory{RecentRejections: s.RecentRejections},
	}
}

func (z ZoneSeed) Zone() *domain.DeliveryZone {
	status := domain.ZoneStatus(z.Status)
	if status == "" {
		status = domain.ZoneStatusActive
	}
	return &domain.DeliveryZone{
		ID:        z.ID,
		Name:      z.Name,
		Districts: z.Districts,
		StaffIDs:  z.StaffIDs,
		Settings:  z.Settings,
		Status:    status,
	}
}

// Route builds a pending route; totals are filled in by the caller if needed.
func (r RouteSeed) Route(now time.Time) *domain.Route {
	route := domain.NewRoute(r.ShopIDs, now)
	route.ID = r.ID
	if r.Code != "" {
		route.Code = r.Code
	}
	return route
}

// BuildRoutes turns the route seeds into pending routes. Creation times step by
// one millisecond from now so file order is pending order, and total distance
// is the sum of legs between consecutive shops that have coordinates.
func (ds *Dataset) BuildRoutes(now time.Time) []*domain.Route {
	coords := make(map[string]domain.Coordinates, len(ds.Shops))
	for _, s := range ds.Shops {
		if s.Lat != nil && s.Lon != nil {
			coords[s.ID] = domain.Coordinates{Lat: *s.Lat, Lon: *s.Lon}
		}
	}

	routes := make([]*domain.Route, 0, len(ds.Routes))
	for i, rs := range ds.Routes {
		r := rs.Route(now.Add(time.Duration(i) * time.Millisecond))
		for j := 1; j < len(rs.ShopIDs); j++ {
			a, okA := coords[rs.ShopIDs[j-1]]
			b, okB := coords[rs.ShopIDs[j]]
			if okA && okB {
				r.TotalDistanceKm += a.DistanceTo(b)
			}
		}
		routes = append(routes, r)
	}
	return routes
}
