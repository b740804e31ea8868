package services

import (
	"context"
	"delivery-dispatch-service/internal/adapters/locks"
	"delivery-dispatch-service/internal/adapters/memory"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// testNow is 10:00 UTC, inside a 08-18 shift.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.RouteStatusChanged
	err    error
}

func (p *recordingPublisher) PublishRouteStatus(_ context.Context, evt ports.RouteStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Events() []ports.RouteStatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.RouteStatusChanged(nil), p.events...)
}

type countingMetrics struct {
	mu          sync.Mutex
	outcomes    map[string]int
	transitions int
	batches     [][2]int
}

func (m *countingMetrics) ObserveAssignment(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

func (m *countingMetrics) ObserveTransition(domain.RouteStatus, domain.RouteStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions++
}

func (m *countingMetrics) ObserveBatch(succeeded, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, [2]int{succeeded, failed})
}

// fixture wires the engine over the in-memory store with a pinned clock and no jitter.
type fixture struct {
	t         *testing.T
	db        *memory.DB
	routes    *memory.RouteRepository
	events    *recordingPublisher
	metrics   *countingMetrics
	hook      *logtest.Hook
	lifecycle *RouteLifecycle
	filter    *EligibilityFilter
	scorer    *Scorer
	assigner  *Assigner
	planner   *RoutePlanner
	fake      *gofakeit.Faker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	db := memory.NewDB()
	routes := memory.NewRouteRepository(db)
	shops := memory.NewShopRepository(db)
	tx := memory.NewTransactor(db)
	now := func() time.Time { return testNow }

	f := &fixture{
		t:       t,
		db:      db,
		routes:  routes,
		events:  &recordingPublisher{},
		metrics: &countingMetrics{},
		hook:    hook,
		fake:    gofakeit.New(42),
	}

	f.lifecycle = &RouteLifecycle{
		Routes:    routes,
		Tx:        tx,
		Publisher: f.events,
		Metrics:   f.metrics,
		Log:       logger,
		Now:       now,
	}
	f.filter = &EligibilityFilter{
		Routes:                 routes,
		Shops:                  shops,
		DailyDistanceCeilingKm: DefaultDailyDistanceCeilingKm,
		Log:                    logger,
	}
	f.scorer = &Scorer{Config: DefaultScoringConfig(), Jitter: FixedJitter(0), Now: now}
	f.assigner = &Assigner{
		Routes:      routes,
		Zones:       memory.NewZoneRepository(db),
		Staff:       memory.NewStaffRepository(db),
		Shops:       shops,
		Tx:          tx,
		Locker:      locks.NewLocalZoneLocker(),
		Lifecycle:   f.lifecycle,
		Eligibility: f.filter,
		Scorer:      f.scorer,
		Metrics:     f.metrics,
		Log:         logger,
		Now:         now,
	}
	f.planner = &RoutePlanner{Routes: routes, Shops: shops, Log: logger, Now: now}

	return f
}

func (f *fixture) shop(id, district string, lat, lon float64) {
	f.db.PutShop(&domain.Shop{
		ID:          id,
		Name:        f.fake.Company(),
		Coordinates: &domain.Coordinates{Lat: lat, Lon: lon},
		ProvinceID:  "p1",
		DistrictID:  district,
	})
}

func (f *fixture) staff(id string, mutate ...func(*domain.Staff)) {
	s := &domain.Staff{ID: id, Name: f.fake.Name(), Status: domain.StaffStatusActive}
	for _, m := range mutate {
		m(s)
	}
	f.db.PutStaff(s)
}

func (f *fixture) zone(id string, maxRoutes, maxKm int, districts []string, staffIDs ...string) {
	z := &domain.DeliveryZone{
		ID:       id,
		Name:     f.fake.City(),
		StaffIDs: staffIDs,
		Settings: domain.ZoneSettings{MaxConcurrentRoutes: maxRoutes, MaxDistancePerRouteKm: maxKm},
		Status:   domain.ZoneStatusActive,
	}
	for _, d := range districts {
		z.Districts = append(z.Districts, domain.District{ProvinceID: "p1", DistrictID: d})
	}
	f.db.PutZone(z)
}

// route stores a pending route; offset orders routes by creation time.
func (f *fixture) route(id string, offset time.Duration, shopIDs ...string) *domain.Route {
	r := domain.NewRoute(shopIDs, testNow.Add(-time.Hour+offset))
	r.ID = id
	f.db.PutRoute(r)
	return r
}

func (f *fixture) get(id string) *domain.Route {
	f.t.Helper()
	r, err := f.routes.FindByID(context.Background(), id)
	if err != nil {
		f.t.Fatalf("load route %s: %v", id, err)
	}
	return r
}

// assignedTo stores a route already assigned to staffID.
func (f *fixture) assignedTo(id, staffID string, shopIDs ...string) *domain.Route {
	r := domain.NewRoute(shopIDs, testNow.Add(-2*time.Hour))
	r.ID = id
	if err := r.AssignTo(staffID, testNow.Add(-time.Hour)); err != nil {
		f.t.Fatalf("assign %s: %v", id, err)
	}
	f.db.PutRoute(r)
	return r
}

// standardZone sets up zone z1 over district d1 with two shops about 5.6 km apart.
func (f *fixture) standardZone(maxRoutes int, staffIDs ...string) {
	f.shop("shop-a", "d1", 10.00, 106.00)
	f.shop("shop-b", "d1", 10.05, 106.00)
	f.zone("z1", maxRoutes, 20, []string{"d1"}, staffIDs...)
}

func (f *fixture) hasLog(level logrus.Level, msg string, field string, value any) bool {
	for _, e := range f.hook.AllEntries() {
		if e.Level == level && e.Message == msg && (field == "" || e.Data[field] == value) {
			return true
		}
	}
	return false
}

var errPublish = errors.New("broker down")
