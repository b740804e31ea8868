package repositories

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Postgres-backed implementation of the RouteRepository port.
// Stops are stored as a JSONB array on the route row.
type PostgresRouteRepository struct{ DB *sql.DB }

func NewPostgresRouteRepository(db *sql.DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db}
}

type stopRow struct {
	ShopID           string            `json:"shop_id"`
	Sequence         int               `json:"sequence"`
	Status           domain.StopStatus `json:"status"`
	EstimatedArrival *time.Time        `json:"estimated_arrival,omitempty"`
	ActualArrival    *time.Time        `json:"actual_arrival,omitempty"`
}

const selectRouteColumns = `
	SELECT
		id, code, status, stops, total_distance_km, assigned_staff_id,
		assigned_at, started_at, completed_at,
		total_orders, completed_orders, failed_orders, actual_duration_minutes,
		created_at, updated_at
	FROM routes
`

func (s *PostgresRouteRepository) FindPending(ctx context.Context) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, "routes.FindPending")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	rows, err := conn(ctx, s.DB).QueryContext(ctx, selectRouteColumns+`
	WHERE status = $1
	ORDER BY created_at, id;
	`, domain.RouteStatusPending)
	if err != nil {
		return nil, fmt.Errorf("find pending routes: query routes table: %w", err)
	}
	return scanRoutes(rows)
}

func (s *PostgresRouteRepository) FindByID(ctx context.Context, id string) (*domain.Route, error) {
	return s.findOne(ctx, id, false)
}

func (s *PostgresRouteRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Route, error) {
	return s.findOne(ctx, id, inTx(ctx))
}

func (s *PostgresRouteRepository) findOne(ctx context.Context, id string, lock bool) (*domain.Route, error) {
	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	q := selectRouteColumns + ` WHERE id = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	r, err := scanRoute(conn(ctx, s.DB).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find route %q: %w", id, domain.ErrRouteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find route %q: %w", id, err)
	}
	return r, nil
}

// Insert or update the route row.
func (s *PostgresRouteRepository) Save(ctx context.Context, r *domain.Route) error {
	if s.DB == nil {
		return errors.New("postgres route repository: DB is nil")
	}
	if r == nil || r.ID == "" {
		return errors.New("save route: route id must not be empty")
	}

	stops := make([]stopRow, 0, len(r.Stops))
	for _, st := range r.Stops {
		stops = append(stops, stopRow{
			ShopID:           st.ShopID,
			Sequence:         st.Sequence,
			Status:           st.Status,
			EstimatedArrival: st.EstimatedArrival,
			ActualArrival:    st.ActualArrival,
		})
	}
	stopsJSON, err := json.Marshal(stops)
	if err != nil {
		return fmt.Errorf("save route %s: encode stops: %w", r.ID, err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	q := `
	INSERT INTO routes (
		id, code, status, stops, total_distance_km, assigned_staff_id,
		assigned_at, started_at, completed_at,
		total_orders, completed_orders, failed_orders, actual_duration_minutes,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (id) DO UPDATE
	SET code = EXCLUDED.code,
		status = EXCLUDED.status,
		stops = EXCLUDED.stops,
		total_distance_km = EXCLUDED.total_distance_km,
		assigned_staff_id = EXCLUDED.assigned_staff_id,
		assigned_at = EXCLUDED.assigned_at,
		started_at = EXCLUDED.started_at,
		completed_at = EXCLUDED.completed_at,
		total_orders = EXCLUDED.total_orders,
		completed_orders = EXCLUDED.completed_orders,
		failed_orders = EXCLUDED.failed_orders,
		actual_duration_minutes = EXCLUDED.actual_duration_minutes,
		updated_at = EXCLUDED.updated_at;
	`

	_, err = conn(ctx, s.DB).ExecContext(ctx, q,
		r.ID, r.Code, string(r.Status), stopsJSON, r.TotalDistanceKm, r.AssignedStaffID,
		r.AssignedAt, r.StartedAt, r.CompletedAt,
		r.Metrics.TotalOrders, r.Metrics.CompletedOrders, r.Metrics.FailedOrders, r.Metrics.ActualDurationMinutes,
		createdAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("save route %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresRouteRepository) Delete(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("postgres route repository: DB is nil")
	}

	res, err := conn(ctx, s.DB).ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete route %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete route %q: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete route %q: %w", id, domain.ErrRouteNotFound)
	}
	return nil
}

func (s *PostgresRouteRepository) CountActiveForStaff(ctx context.Context, staffID string) (int, error) {
	if s.DB == nil {
		return 0, errors.New("postgres route repository: DB is nil")
	}

	var n int
	err := conn(ctx, s.DB).QueryRowContext(ctx, `
	SELECT count(*)
	FROM routes
	WHERE assigned_staff_id = $1
		AND status IN ($2, $3);
	`, staffID, domain.RouteStatusAssigned, domain.RouteStatusDelivering).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active routes for staff %q: %w", staffID, err)
	}
	return n, nil
}

func (s *PostgresRouteRepository) ListActiveForStaff(ctx context.Context, staffID string) ([]*domain.Route, error) {
	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	rows, err := conn(ctx, s.DB).QueryContext(ctx, selectRouteColumns+`
	WHERE assigned_staff_id = $1
		AND status IN ($2, $3)
	ORDER BY assigned_at, id;
	`, staffID, domain.RouteStatusAssigned, domain.RouteStatusDelivering)
	if err != nil {
		return nil, fmt.Errorf("list active routes for staff %q: %w", staffID, err)
	}
	return scanRoutes(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*domain.Route, error) {
	var (
		r         domain.Route
		status    string
		stopsJSON []byte
		staffID   sql.NullString
		assigned  sql.NullTime
		started   sql.NullTime
		completed sql.NullTime
		duration  sql.NullInt64
	)

	err := row.Scan(
		&r.ID, &r.Code, &status, &stopsJSON, &r.TotalDistanceKm, &staffID,
		&assigned, &started, &completed,
		&r.Metrics.TotalOrders, &r.Metrics.CompletedOrders, &r.Metrics.FailedOrders, &duration,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var stops []stopRow
	if err := json.Unmarshal(stopsJSON, &stops); err != nil {
		return nil, fmt.Errorf("decode stops of route %s: %w", r.ID, err)
	}
	r.Stops = make([]domain.RouteStop, 0, len(stops))
	for _, st := range stops {
		r.Stops = append(r.Stops, domain.RouteStop{
			ShopID:           st.ShopID,
			Sequence:         st.Sequence,
			Status:           st.Status,
			EstimatedArrival: st.EstimatedArrival,
			ActualArrival:    st.ActualArrival,
		})
	}

	r.Status = domain.RouteStatus(status)
	if staffID.Valid {
		r.AssignedStaffID = &staffID.String
	}
	r.AssignedAt = nullTime(assigned)
	r.StartedAt = nullTime(started)
	r.CompletedAt = nullTime(completed)
	if duration.Valid {
		d := int(duration.Int64)
		r.Metrics.ActualDurationMinutes = &d
	}

	return &r, nil
}

func scanRoutes(rows *sql.Rows) ([]*domain.Route, error) {
	defer rows.Close()

	routes := make([]*domain.Route, 0, 16)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan route row: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("route row iteration: %w", err)
	}
	return routes, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
