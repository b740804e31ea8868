package repositories

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/domain"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Postgres-backed implementation of the ZoneRepository port.
type PostgresZoneRepository struct {
	DB  *sql.DB
	Log logrus.FieldLogger
}

func NewPostgresZoneRepository(db *sql.DB) *PostgresZoneRepository {
	return &PostgresZoneRepository{DB: db, Log: logrus.StandardLogger()}
}

// FindActiveZoneByDistrict returns the active zone covering districtID.
// When more than one zone claims the district the lowest id wins.
func (s *PostgresZoneRepository) FindActiveZoneByDistrict(ctx context.Context, districtID string) (*domain.DeliveryZone, error) {
	if s.DB == nil {
		return nil, errors.New("postgres zone repository: DB is nil")
	}

	rows, err := conn(ctx, s.DB).QueryContext(ctx, `
	SELECT z.id
	FROM delivery_zones z
	JOIN zone_districts d ON d.zone_id = z.id
	WHERE d.district_id = $1
		AND z.status = $2
	ORDER BY z.id
	LIMIT 2;
	`, districtID, domain.ZoneStatusActive)
	if err != nil {
		return nil, fmt.Errorf("find zone for district %q: %w", districtID, err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("find zone for district %q: scan: %w", districtID, err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find zone for district %q: %w", districtID, err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("district %q: %w", districtID, domain.ErrNoZoneFound)
	}
	if len(ids) > 1 && s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"district_id": districtID,
			"zone_ids":    ids,
		}).Warn("district covered by more than one active zone")
	}

	return s.load(ctx, ids[0])
}

func (s *PostgresZoneRepository) load(ctx context.Context, id string) (*domain.DeliveryZone, error) {
	db := conn(ctx, s.DB)

	z := domain.DeliveryZone{ID: id}
	var status string
	err := db.QueryRowContext(ctx, `
	SELECT name, status, max_concurrent_routes, max_distance_per_route
	FROM delivery_zones
	WHERE id = $1;
	`, id).Scan(&z.Name, &status, &z.Settings.MaxConcurrentRoutes, &z.Settings.MaxDistancePerRouteKm)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", id, err)
	}
	z.Status = domain.ZoneStatus(status)

	districtRows, err := db.QueryContext(ctx, `
	SELECT province_id, district_id
	FROM zone_districts
	WHERE zone_id = $1
	ORDER BY district_id;
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load zone %q districts: %w", id, err)
	}
	for districtRows.Next() {
		var d domain.District
		if err := districtRows.Scan(&d.ProvinceID, &d.DistrictID); err != nil {
			districtRows.Close()
			return nil, fmt.Errorf("load zone %q districts: scan: %w", id, err)
		}
		z.Districts = append(z.Districts, d)
	}
	districtRows.Close()
	if err := districtRows.Err(); err != nil {
		return nil, fmt.Errorf("load zone %q districts: %w", id, err)
	}

	staffRows, err := db.QueryContext(ctx, `
	SELECT staff_id
	FROM zone_staff
	WHERE zone_id = $1
	ORDER BY position;
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load zone %q staff: %w", id, err)
	}
	for staffRows.Next() {
		var staffID string
		if err := staffRows.Scan(&staffID); err != nil {
			staffRows.Close()
			return nil, fmt.Errorf("load zone %q staff: scan: %w", id, err)
		}
		z.StaffIDs = append(z.StaffIDs, staffID)
	}
	staffRows.Close()
	if err := staffRows.Err(); err != nil {
		return nil, fmt.Errorf("load zone %q staff: %w", id, err)
	}

	return &z, nil
}

// Upsert replaces the zone row together with its district and staff lists.
func (s *PostgresZoneRepository) Upsert(ctx context.Context, z *domain.DeliveryZone) error {
	if s.DB == nil {
		return errors.New("postgres zone repository: DB is nil")
	}
	if err := z.Settings.Validate(); err != nil {
		return fmt.Errorf("upsert zone %q: %w", z.ID, err)
	}

	return NewPostgresTransactor(s.DB).WithinTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, s.DB)

		_, err := db.ExecContext(ctx, `
		INSERT INTO delivery_zones (id, name, status, max_concurrent_routes, max_distance_per_route)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			status = EXCLUDED.status,
			max_concurrent_routes = EXCLUDED.max_concurrent_routes,
			max_distance_per_route = EXCLUDED.max_distance_per_route;
		`, z.ID, z.Name, string(z.Status), z.Settings.MaxConcurrentRoutes, z.Settings.MaxDistancePerRouteKm)
		if err != nil {
			return fmt.Errorf("upsert zone %q: %w", z.ID, err)
		}

		if _, err := db.ExecContext(ctx, `DELETE FROM zone_districts WHERE zone_id = $1`, z.ID); err != nil {
			return fmt.Errorf("upsert zone %q: clear districts: %w", z.ID, err)
		}
		for _, d := range z.Districts {
			_, err := db.ExecContext(ctx, `
			INSERT INTO zone_districts (zone_id, province_id, district_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (zone_id, district_id) DO NOTHING;
			`, z.ID, d.ProvinceID, d.DistrictID)
			if err != nil {
				return fmt.Errorf("upsert zone %q: insert district %q: %w", z.ID, d.DistrictID, err)
			}
		}

		if _, err := db.ExecContext(ctx, `DELETE FROM zone_staff WHERE zone_id = $1`, z.ID); err != nil {
			return fmt.Errorf("upsert zone %q: clear staff: %w", z.ID, err)
		}
		for i, staffID := range z.StaffIDs {
			_, err := db.ExecContext(ctx, `
			INSERT INTO zone_staff (zone_id, staff_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT (zone_id, staff_id) DO NOTHING;
			`, z.ID, staffID, i)
			if err != nil {
				return fmt.Errorf("upsert zone %q: insert staff %q: %w", z.ID, staffID, err)
			}
		}

		return nil
	})
}
