package seed

import (
	"delivery-dispatch-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `{
  "shops": [
    {"id": "s1", "name": "Hub", "lat": 10.77, "lon": 106.70, "province_id": "79", "district_id": "760"},
    {"id": "s2", "name": "No coords", "district_id": "761"}
  ],
  "staff": [
    {"id": "u1", "name": "Lan", "delivery_metrics": {"rating": 4.5, "total_deliveries": 10, "successful_deliveries": 9}}
  ],
  "zones": [
    {"id": "z1", "name": "Central", "districts": [{"province_id": "79", "district_id": "760"}], "staff": ["u1"],
     "settings": {"max_concurrent_routes": 3, "max_distance_per_route": 50}}
  ],
  "routes": [
    {"id": "r1", "shop_ids": ["s1", "s2"]}
  ]
}`

func TestParse(t *testing.T) {
	ds, err := Parse([]byte(sample))
	require.NoError(t, err)

	shop := ds.Shops[0].Shop()
	require.NotNil(t, shop.Coordinates)
	require.Nil(t, ds.Shops[1].Shop().Coordinates)

	staff := ds.Staff[0].Staff()
	require.Equal(t, domain.StaffStatusActive, staff.Status)
	require.Equal(t, 4.5, staff.DeliveryMetrics.Rating)

	zone := ds.Zones[0].Zone()
	require.True(t, zone.IsActive())
	require.True(t, zone.Covers("760"))
	require.Equal(t, 3, zone.Settings.MaxConcurrentRoutes)

	route := ds.Routes[0].Route(time.Now())
	require.Equal(t, "r1", route.ID)
	require.Equal(t, domain.RouteStatusPending, route.Status)
	require.Equal(t, 2, route.Metrics.TotalOrders)
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad latitude":     `{"shops": [{"id": "s1", "lat": 120, "lon": 10}]}`,
		"empty route":      `{"routes": [{"id": "r1", "shop_ids": []}]}`,
		"zero settings":    `{"zones": [{"id": "z1", "name": "Z", "settings": {"max_concurrent_routes": 0, "max_distance_per_route": 10}}]}`,
		"bad staff status": `{"staff": [{"id": "u1", "status": "sleeping"}]}`,
		"not json":         `{`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
		})
	}
}

func TestBuildRoutes(t *testing.T) {
	ds, err := Parse([]byte(`{
  "shops": [
    {"id": "a", "lat": 10.00, "lon": 106.00},
    {"id": "b", "lat": 10.05, "lon": 106.00},
    {"id": "x"}
  ],
  "routes": [
    {"id": "r1", "shop_ids": ["a", "b"]},
    {"id": "r2", "shop_ids": ["a", "x", "b"]}
  ]
}`))
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	routes := ds.BuildRoutes(now)
	require.Len(t, routes, 2)
	require.InDelta(t, 5.56, routes[0].TotalDistanceKm, 0.01)
	require.Zero(t, routes[1].TotalDistanceKm)
	require.True(t, routes[1].CreatedAt.After(routes[0].CreatedAt))
}
