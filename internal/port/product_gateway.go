package port

import (
	"context"

	"github.com/rl1809/inventory-console/internal/core/domain"
)

// ProductGateway is the backend that owns product persistence. Every method
// returns the record as the backend stored it.
type ProductGateway interface {
	// ListProducts fetches the full product snapshot
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// CreateProduct persists a new product
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)

	// ReplaceProduct overwrites every field of an existing product
	ReplaceProduct(ctx context.Context, product domain.Product) (domain.Product, error)

	// PatchProduct updates only the given fields of an existing product
	PatchProduct(ctx context.Context, id string, fields map[string]any) (domain.Product, error)

	// DeleteProduct removes a product
	DeleteProduct(ctx context.Context, id string) error
}
