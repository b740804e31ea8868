package ports

import (
	"context"
	"delivery-dispatch-service/internal/domain"
)

// Port: read access to delivery zones.
type ZoneRepository interface {
	// Return the active zone owning districtID, or domain.ErrNoZoneFound (wrapped).
	FindActiveZoneByDistrict(ctx context.Context, districtID string) (*domain.DeliveryZone, error)
}
