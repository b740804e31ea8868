package memory

import (
	"delivery-dispatch-service/internal/adapters/seed"
	"time"
)

// Load copies a seed dataset into db. Routes are stored as pending.
func Load(db *DB, ds *seed.Dataset, now time.Time) {
	for _, s := range ds.Shops {
		db.PutShop(s.Shop())
	}
	for _, s := range ds.Staff {
		db.PutStaff(s.Staff())
	}
	for _, z := range ds.Zones {
		db.PutZone(z.Zone())
	}
	for _, r := range ds.BuildRoutes(now) {
		db.PutRoute(r)
	}
}
