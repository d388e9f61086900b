package port

import (
	"context"

	"github.com/rl1809/inventory-console/internal/core/domain"
)

type DatabaseRepository interface {
	// ListProducts returns every product matching criteria in insertion order
	ListProducts(ctx context.Context, criteria domain.Criteria) ([]domain.Product, error)

	// GetProduct retrieves a product by ID, nil when absent
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// CreateProduct inserts a new product, ErrDuplicateProduct if the ID is taken
	CreateProduct(ctx context.Context, product domain.Product) error

	// UpdateProduct overwrites a product, ErrProductNotFound if absent
	UpdateProduct(ctx context.Context, product domain.Product) error

	// DeleteProduct removes a product, ErrProductNotFound if absent
	DeleteProduct(ctx context.Context, id string) error

	// StockByCategory sums current stock per category, largest first
	StockByCategory(ctx context.Context) ([]domain.CategoryStock, error)
}
