package services

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestRouteSpan(t *testing.T) {
	f := newFixture(t)
	f.standardZone(2)
	r := f.route("r1", 0, "shop-a", "shop-b")

	span, err := f.filter.RouteSpan(context.Background(), r)
	require.NoError(t, err)
	require.InDelta(t, 5.56, span, 0.01)
}

func TestRouteSpan_MissingShopData(t *testing.T) {
	f := newFixture(t)
	f.standardZone(2)
	f.db.PutShop(&domain.Shop{ID: "shop-nocoords", DistrictID: "d1"})

	_, err := f.filter.RouteSpan(context.Background(), f.route("r1", 0, "shop-a", "shop-nocoords"))
	require.ErrorIs(t, err, domain.ErrMissingShopData)

	_, err = f.filter.RouteSpan(context.Background(), f.route("r2", 0, "ghost", "shop-b"))
	require.ErrorIs(t, err, domain.ErrMissingShopData)
	require.ErrorIs(t, err, domain.ErrShopNotFound)
}

func TestEvaluate_Reasons(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive staff", func(t *testing.T) {
		f := newFixture(t)
		f.standardZone(2, "s1")
		f.staff("s1", func(s *domain.Staff) { s.Status = domain.StaffStatusInactive })
		r := f.route("r1", 0, "shop-a", "shop-b")

		staff, _ := f.assigner.Staff.FindByID(ctx, "s1")
		zone, _ := f.assigner.Zones.FindActiveZoneByDistrict(ctx, "d1")
		e, err := f.filter.Evaluate(ctx, r, 5, staff, zone)
		require.NoError(t, err)
		require.False(t, e.Eligible)
		require.Equal(t, ReasonInactive, e.Reason)
	})

	t.Run("at concurrency limit", func(t *testing.T) {
		f := newFixture(t)
		f.standardZone(1, "s1")
		f.staff("s1")
		f.assignedTo("busy", "s1", "shop-a", "shop-b")
		r := f.route("r1", 0, "shop-a", "shop-b")

		staff, _ := f.assigner.Staff.FindByID(ctx, "s1")
		zone, _ := f.assigner.Zones.FindActiveZoneByDistrict(ctx, "d1")
		e, err := f.filter.Evaluate(ctx, r, 5, staff, zone)
		require.NoError(t, err)
		require.False(t, e.Eligible)
		require.Equal(t, ReasonMaxConcurrentRoutes, e.Reason)
		require.Equal(t, 1, e.ActiveRoutes)
	})

	t.Run("route too long for zone", func(t *testing.T) {
		f := newFixture(t)
		f.standardZone(2, "s1")
		f.staff("s1")
		r := f.route("r1", 0, "shop-a", "shop-b")

		staff, _ := f.assigner.Staff.FindByID(ctx, "s1")
		zone, _ := f.assigner.Zones.FindActiveZoneByDistrict(ctx, "d1")
		e, err := f.filter.Evaluate(ctx, r, 20.5, staff, zone)
		require.NoError(t, err)
		require.Equal(t, ReasonMaxRouteDistance, e.Reason)

		e, err = f.filter.Evaluate(ctx, r, 20, staff, zone)
		require.NoError(t, err)
		require.True(t, e.Eligible, "limit is inclusive")
	})

	t.Run("daily distance ceiling", func(t *testing.T) {
		f := newFixture(t)
		f.standardZone(3, "s1")
		f.shop("shop-far", "d1", 10.00, 106.90)
		f.staff("s1")
		f.assignedTo("long-haul", "s1", "shop-a", "shop-far")
		r := f.route("r1", 0, "shop-a", "shop-b")

		staff, _ := f.assigner.Staff.FindByID(ctx, "s1")
		zone, _ := f.assigner.Zones.FindActiveZoneByDistrict(ctx, "d1")
		span, err := f.filter.RouteSpan(ctx, r)
		require.NoError(t, err)

		e, err := f.filter.Evaluate(ctx, r, span, staff, zone)
		require.NoError(t, err)
		require.False(t, e.Eligible)
		require.Equal(t, ReasonDailyDistance, e.Reason)
		require.InDelta(t, 98.5, e.ActiveDistanceKm, 0.5)

		f.filter.DailyDistanceCeilingKm = 150
		e, err = f.filter.Evaluate(ctx, r, span, staff, zone)
		require.NoError(t, err)
		require.True(t, e.Eligible)
	})
}

func TestEvaluate_SkipsActiveRouteWithUnknownSpan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.standardZone(3, "s1")
	f.staff("s1")
	f.assignedTo("broken", "s1", "shop-a", "ghost")
	r := f.route("r1", 0, "shop-a", "shop-b")

	staff, _ := f.assigner.Staff.FindByID(ctx, "s1")
	zone, _ := f.assigner.Zones.FindActiveZoneByDistrict(ctx, "d1")
	e, err := f.filter.Evaluate(ctx, r, 5, staff, zone)
	require.NoError(t, err)
	require.True(t, e.Eligible)
	require.Equal(t, 1, e.ActiveRoutes)
	require.Zero(t, e.ActiveDistanceKm)
	require.True(t, f.hasLog(logrus.WarnLevel, "skip active route with unknown span", "route_id", "broken"))
}

func TestIsEligible_RaisingLimitsNeverRevokes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.standardZone(1, "s1")
	f.staff("s1")
	f.assignedTo("busy", "s1", "shop-a", "shop-b")
	r := f.route("r1", 0, "shop-a", "shop-b")
	staff, _ := f.assigner.Staff.FindByID(ctx, "s1")

	prev := false
	for limit := 1; limit <= 4; limit++ {
		zone := &domain.DeliveryZone{
			ID:       "z1",
			Settings: domain.ZoneSettings{MaxConcurrentRoutes: limit, MaxDistancePerRouteKm: 20},
			Status:   domain.ZoneStatusActive,
		}
		ok, err := f.filter.IsEligible(ctx, r, staff, zone)
		require.NoError(t, err)
		if prev {
			require.True(t, ok, "limit %d revoked eligibility", limit)
		}
		prev = ok
	}
	require.True(t, prev)
}
