package repositories

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/adapters/seed"
	"fmt"
	"time"
)

// Populate the database with a seed dataset. Existing rows with the same ids are replaced.
func SeedFromDataset(ctx context.Context, db *sql.DB, ds *seed.Dataset) error {
	tx := NewPostgresTransactor(db)

	return tx.WithinTx(ctx, func(ctx context.Context) error {
		shops := NewPostgresShopRepository(db)
		for _, s := range ds.Shops {
			if err := shops.Upsert(ctx, s.Shop()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}

		staff := NewPostgresStaffRepository(db)
		for _, s := range ds.Staff {
			if err := staff.Upsert(ctx, s.Staff()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}

		zones := NewPostgresZoneRepository(db)
		for _, z := range ds.Zones {
			if err := zones.Upsert(ctx, z.Zone()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}

		routes := NewPostgresRouteRepository(db)
		for _, r := range ds.BuildRoutes(time.Now()) {
			if err := routes.Save(ctx, r); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}

		return nil
	})
}
