package repositories

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/domain"
	"errors"
	"fmt"
)

// Postgres-backed implementation of the ShopRepository port.
type PostgresShopRepository struct{ DB *sql.DB }

func NewPostgresShopRepository(db *sql.DB) *PostgresShopRepository {
	return &PostgresShopRepository{DB: db}
}

func (s *PostgresShopRepository) FindByID(ctx context.Context, id string) (*domain.Shop, error) {
	if s.DB == nil {
		return nil, errors.New("postgres shop repository: DB is nil")
	}

	var (
		shop     domain.Shop
		lat, lon sql.NullFloat64
	)
	err := conn(ctx, s.DB).QueryRowContext(ctx, `
	SELECT id, name, lat, lon, province_id, district_id
	FROM shops
	WHERE id = $1;
	`, id).Scan(&shop.ID, &shop.Name, &lat, &lon, &shop.ProvinceID, &shop.DistrictID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find shop %q: %w", id, domain.ErrShopNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find shop %q: %w", id, err)
	}

	if lat.Valid && lon.Valid {
		shop.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
	}
	return &shop, nil
}

func (s *PostgresShopRepository) Upsert(ctx context.Context, shop *domain.Shop) error {
	if s.DB == nil {
		return errors.New("postgres shop repository: DB is nil")
	}

	var lat, lon sql.NullFloat64
	if shop.Coordinates != nil {
		lat = sql.NullFloat64{Float64: shop.Coordinates.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: shop.Coordinates.Lon, Valid: true}
	}

	_, err := conn(ctx, s.DB).ExecContext(ctx, `
	INSERT INTO shops (id, name, lat, lon, province_id, district_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		province_id = EXCLUDED.province_id,
		district_id = EXCLUDED.district_id;
	`, shop.ID, shop.Name, lat, lon, shop.ProvinceID, shop.DistrictID)
	if err != nil {
		return fmt.Errorf("upsert shop %q: %w", shop.ID, err)
	}
	return nil
}
