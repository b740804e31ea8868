// Package memory holds in-process implementations of the store ports.
// They back the test suites and the STORE_BACKEND=memory mode.
package memory

import (
	"context"
	"delivery-dispatch-service/internal/domain"
	"sync"
)

// DB is the shared in-memory dataset behind every memory repository.
// Records are cloned on the way in and out so callers never alias stored state.
type DB struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	routes map[string]*domain.Route
	order  []string // route insertion order
	zones  map[string]*domain.DeliveryZone
	staff  map[string]*domain.Staff
	shops  map[string]*domain.Shop
}

func NewDB() *DB {
	return &DB{
		routes: make(map[string]*domain.Route),
		zones:  make(map[string]*domain.DeliveryZone),
		staff:  make(map[string]*domain.Staff),
		shops:  make(map[string]*domain.Shop),
	}
}

// PutZone stores or replaces a zone.
func (db *DB) PutZone(z *domain.DeliveryZone) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.zones[z.ID] = cloneZone(z)
}

// PutStaff stores or replaces a staff member.
func (db *DB) PutStaff(s *domain.Staff) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.staff[s.ID] = cloneStaff(s)
}

// PutShop stores or replaces a shop.
func (db *DB) PutShop(s *domain.Shop) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := *s
	if s.Coordinates != nil {
		at := *s.Coordinates
		c.Coordinates = &at
	}
	db.shops[s.ID] = &c
}

// PutRoute stores or replaces a route outside of any transaction.
func (db *DB) PutRoute(r *domain.Route) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.putRouteLocked(r)
}

func (db *DB) putRouteLocked(r *domain.Route) {
	if _, ok := db.routes[r.ID]; !ok {
		db.order = append(db.order, r.ID)
	}
	db.routes[r.ID] = r.Clone()
}

func (db *DB) deleteRouteLocked(id string) {
	delete(db.routes, id)
	for i, v := range db.order {
		if v == id {
			db.order = append(db.order[:i], db.order[i+1:]...)
			break
		}
	}
}

type txKey struct{}

// journal remembers the pre-transaction state of every route a transaction touched.
type journal struct {
	before map[string]*domain.Route // nil value: route did not exist
}

func txFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

func (j *journal) remember(id string, prev *domain.Route) {
	if j == nil {
		return
	}
	if _, seen := j.before[id]; seen {
		return
	}
	j.before[id] = prev.Clone()
}

func cloneZone(z *domain.DeliveryZone) *domain.DeliveryZone {
	c := *z
	c.Districts = append([]domain.District(nil), z.Districts...)
	c.StaffIDs = append([]string(nil), z.StaffIDs...)
	return &c
}

func cloneStaff(s *domain.Staff) *domain.Staff {
	c := *s
	c.FamiliarDistricts = append([]domain.FamiliarDistrict(nil), s.FamiliarDistricts...)
	c.DeliveryHistory.RecentRejections = append([]domain.Rejection(nil), s.DeliveryHistory.RecentRejections...)
	if s.PreferredWorkingHours != nil {
		wh := *s.PreferredWorkingHours
		c.PreferredWorkingHours = &wh
	}
	return &c
}
