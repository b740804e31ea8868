package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createShopsQuery := `
	CREATE TABLE IF NOT EXISTS shops (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION,
		province_id TEXT NOT NULL DEFAULT '',
		district_id TEXT NOT NULL DEFAULT ''
	);
	`

	createStaffQuery := `
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		delivery_metrics JSONB NOT NULL DEFAULT '{}'::jsonb,
		familiar_districts JSONB NOT NULL DEFAULT '[]'::jsonb,
		preferred_working_hours JSONB,
		delivery_history JSONB NOT NULL DEFAULT '{}'::jsonb
	);
	`

	createZonesQuery := `
	CREATE TABLE IF NOT EXISTS delivery_zones (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		max_concurrent_routes INTEGER NOT NULL CHECK (max_concurrent_routes > 0),
		max_distance_per_route INTEGER NOT NULL CHECK (max_distance_per_route > 0)
	);
	`

	createZoneDistrictsQuery := `
	CREATE TABLE IF NOT EXISTS zone_districts (
		zone_id TEXT NOT NULL REFERENCES delivery_zones(id) ON DELETE CASCADE,
		province_id TEXT NOT NULL,
		district_id TEXT NOT NULL,
		PRIMARY KEY (zone_id, district_id)
	);
	`

	createZoneStaffQuery := `
	CREATE TABLE IF NOT EXISTS zone_staff (
		zone_id TEXT NOT NULL REFERENCES delivery_zones(id) ON DELETE CASCADE,
		staff_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (zone_id, staff_id)
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		stops JSONB NOT NULL DEFAULT '[]'::jsonb,
		total_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		assigned_staff_id TEXT,
		assigned_at TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		total_orders INTEGER NOT NULL DEFAULT 0,
		completed_orders INTEGER NOT NULL DEFAULT 0,
		failed_orders INTEGER NOT NULL DEFAULT 0,
		actual_duration_minutes INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQueries := []string{
		`CREATE INDEX IF NOT EXISTS idx_routes_status_created ON routes(status, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_routes_staff_status ON routes(assigned_staff_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_zone_districts_district ON zone_districts(district_id);`,
	}

	statements := []string{
		createShopsQuery,
		createStaffQuery,
		createZonesQuery,
		createZoneDistrictsQuery,
		createZoneStaffQuery,
		createRoutesQuery,
	}
	statements = append(statements, createIndexQueries...)

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
