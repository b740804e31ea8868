package domain

import (
	"fmt"
	"strings"
)

// Shop is a point of interest used as a route endpoint.
// Coordinates is nil when the shop has not been geocoded.
type Shop struct {
	ID          string
	Name        string
	Coordinates *Coordinates
	ProvinceID  string
	DistrictID  string
}

// Location returns the shop's coordinates or ErrMissingShopData.
func (s *Shop) Location() (Coordinates, error) {
	if s.Coordinates == nil {
		return Coordinates{}, fmt.Errorf("shop %s has no coordinates: %w", s.ID, ErrMissingShopData)
	}
	return *s.Coordinates, nil
}

// District returns the shop's district id or ErrMissingShopData.
func (s *Shop) District() (string, error) {
	d := strings.TrimSpace(s.DistrictID)
	if d == "" {
		return "", fmt.Errorf("shop %s has no district: %w", s.ID, ErrMissingShopData)
	}
	return d, nil
}
