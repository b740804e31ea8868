package ports

import (
	"context"
	"delivery-dispatch-service/internal/domain"
)

// Port: coordinate and district lookup for route endpoints.
type ShopRepository interface {
	// Return the shop, or domain.ErrShopNotFound (wrapped).
	FindByID(ctx context.Context, id string) (*domain.Shop, error)
}
