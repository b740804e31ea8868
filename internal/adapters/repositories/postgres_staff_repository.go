package repositories

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Postgres-backed implementation of the StaffRepository port.
// Metrics, familiarity and history live in JSONB columns.
type PostgresStaffRepository struct{ DB *sql.DB }

func NewPostgresStaffRepository(db *sql.DB) *PostgresStaffRepository {
	return &PostgresStaffRepository{DB: db}
}

func (s *PostgresStaffRepository) FindByID(ctx context.Context, id string) (*domain.Staff, error) {
	if s.DB == nil {
		return nil, errors.New("postgres staff repository: DB is nil")
	}

	var (
		st                                  domain.Staff
		status                              string
		metricsJSON, familiarJSON, histJSON []byte
		hoursJSON                           []byte
	)
	err := conn(ctx, s.DB).QueryRowContext(ctx, `
	SELECT id, name, status, delivery_metrics, familiar_districts, preferred_working_hours, delivery_history
	FROM staff
	WHERE id = $1;
	`, id).Scan(&st.ID, &st.Name, &status, &metricsJSON, &familiarJSON, &hoursJSON, &histJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find staff %q: %w", id, domain.ErrStaffNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find staff %q: %w", id, err)
	}
	st.Status = domain.StaffStatus(status)

	if err := json.Unmarshal(metricsJSON, &st.DeliveryMetrics); err != nil {
		return nil, fmt.Errorf("find staff %q: decode metrics: %w", id, err)
	}
	if err := json.Unmarshal(familiarJSON, &st.FamiliarDistricts); err != nil {
		return nil, fmt.Errorf("find staff %q: decode familiar districts: %w", id, err)
	}
	if err := json.Unmarshal(histJSON, &st.DeliveryHistory); err != nil {
		return nil, fmt.Errorf("find staff %q: decode history: %w", id, err)
	}
	if len(hoursJSON) > 0 {
		var wh domain.WorkingHours
		if err := json.Unmarshal(hoursJSON, &wh); err != nil {
			return nil, fmt.Errorf("find staff %q: decode working hours: %w", id, err)
		}
		st.PreferredWorkingHours = &wh
	}

	return &st, nil
}

// LockForAssignment takes row locks on the staff members in id order, so two
// transactions locking overlapping rosters cannot deadlock. Outside a
// transaction there is nothing to hold the locks and it does nothing.
func (s *PostgresStaffRepository) LockForAssignment(ctx context.Context, ids []string) error {
	if s.DB == nil {
		return errors.New("postgres staff repository: DB is nil")
	}
	if len(ids) == 0 || !inTx(ctx) {
		return nil
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	rows, err := conn(ctx, s.DB).QueryContext(ctx, `
	SELECT id
	FROM staff
	WHERE id = ANY($1)
	ORDER BY id
	FOR UPDATE;
	`, sorted)
	if err != nil {
		return fmt.Errorf("lock staff %v: %w", sorted, err)
	}
	defer rows.Close()

	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock staff %v: %w", sorted, err)
	}
	return nil
}

func (s *PostgresStaffRepository) Upsert(ctx context.Context, st *domain.Staff) error {
	if s.DB == nil {
		return errors.New("postgres staff repository: DB is nil")
	}

	metricsJSON, err := json.Marshal(st.DeliveryMetrics)
	if err != nil {
		return fmt.Errorf("upsert staff %q: encode metrics: %w", st.ID, err)
	}
	familiar := st.FamiliarDistricts
	if familiar == nil {
		familiar = []domain.FamiliarDistrict{}
	}
	familiarJSON, err := json.Marshal(familiar)
	if err != nil {
		return fmt.Errorf("upsert staff %q: encode familiar districts: %w", st.ID, err)
	}
	histJSON, err := json.Marshal(st.DeliveryHistory)
	if err != nil {
		return fmt.Errorf("upsert staff %q: encode history: %w", st.ID, err)
	}
	var hours any
	if st.PreferredWorkingHours != nil {
		b, err := json.Marshal(st.PreferredWorkingHours)
		if err != nil {
			return fmt.Errorf("upsert staff %q: encode working hours: %w", st.ID, err)
		}
		hours = b
	}

	_, err = conn(ctx, s.DB).ExecContext(ctx, `
	INSERT INTO staff (id, name, status, delivery_metrics, familiar_districts, preferred_working_hours, delivery_history)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		status = EXCLUDED.status,
		delivery_metrics = EXCLUDED.delivery_metrics,
		familiar_districts = EXCLUDED.familiar_districts,
		preferred_working_hours = EXCLUDED.preferred_working_hours,
		delivery_history = EXCLUDED.delivery_history;
	`, st.ID, st.Name, string(st.Status), metricsJSON, familiarJSON, hours, histJSON)
	if err != nil {
		return fmt.Errorf("upsert staff %q: %w", st.ID, err)
	}
	return nil
}
