package services

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestAssignAllPending_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.standardZone(5, "s1", "s2")
	f.staff("s1")
	f.staff("s2")
	f.db.PutShop(&domain.Shop{ID: "shop-nodistrict", Coordinates: &domain.Coordinates{Lat: 10.01, Lon: 106}})

	f.route("route-1", 1*time.Minute, "shop-a", "shop-b")
	f.route("route-2", 2*time.Minute, "shop-a", "shop-nodistrict")
	f.route("route-3", 3*time.Minute, "shop-b", "shop-a")

	res, err := f.assigner.AssignAllPending(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Succeeded, 2)
	require.Equal(t, "route-1", res.Succeeded[0].RouteID)
	require.Equal(t, "route-3", res.Succeeded[1].RouteID)

	require.Len(t, res.Failed, 1)
	require.Equal(t, "route-2", res.Failed[0].RouteID)
	require.ErrorIs(t, res.Failed[0].Err, domain.ErrMissingShopData)

	require.Equal(t, domain.RouteStatusAssigned, f.get("route-1").Status)
	require.Equal(t, domain.RouteStatusPending, f.get("route-2").Status)
	require.Equal(t, domain.RouteStatusAssigned, f.get("route-3").Status)

	require.True(t, f.hasLog(logrus.WarnLevel, "route not assigned", "route_id", "route-2"))
	require.Equal(t, [][2]int{{2, 1}}, f.metrics.batches)
}

func TestAssignAllPending_SpreadsWork(t *testing.T) {
	f := newFixture(t)
	f.standardZone(5, "s1", "s2")
	f.staff("s1")
	f.staff("s2")
	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		f.route(id, time.Duration(i)*time.Minute, "shop-a", "shop-b")
	}

	res, err := f.assigner.AssignAllPending(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 4)

	perStaff := map[string]int{}
	for _, a := range res.Succeeded {
		perStaff[a.StaffID]++
	}
	require.Equal(t, map[string]int{"s1": 2, "s2": 2}, perStaff)
}

func TestAssignAllPending_NothingPending(t *testing.T) {
	f := newFixture(t)

	res, err := f.assigner.AssignAllPending(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Succeeded)
	require.Empty(t, res.Failed)
}

func TestAssignAllPending_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.standardZone(5, "s1")
	f.staff("s1")
	f.route("r1", 0, "shop-a", "shop-b")
	f.route("r2", time.Minute, "shop-a", "shop-b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.assigner.AssignAllPending(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, res.Succeeded)
	require.Equal(t, domain.RouteStatusPending, f.get("r1").Status)
}
