package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

const (
	defaultRating  = 5
	recentProducts = 5
)

// Dashboard is the payload of the dashboard summary endpoint.
type Dashboard struct {
	Stats          domain.Stats           `json:"stats"`
	RecentProducts []domain.Product       `json:"recent_products"`
	InventoryData  []domain.CategoryStock `json:"inventory_data"`
}

// CatalogService is the server side of the product API. It owns persistence
// and derives every stored status from the stock numbers.
type CatalogService struct {
	db    port.DatabaseRepository
	cache port.CacheRepository
	log   *zap.Logger
}

// NewCatalogService wires the repositories. cache may be nil to disable
// idempotency checks.
func NewCatalogService(db port.DatabaseRepository, cache port.CacheRepository) *CatalogService {
	return &CatalogService{db: db, cache: cache, log: zap.L().Named("catalog")}
}

func (s *CatalogService) List(ctx context.Context, criteria domain.Criteria) ([]domain.Product, error) {
	return s.db.ListProducts(ctx, criteria)
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.db.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if p == nil {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return *p, nil
}

// Create stores a new product. A non-empty idempotencyKey that was already
// used yields ErrDuplicateRequest; the key is released when the insert fails
// so the client may retry.
func (s *CatalogService) Create(ctx context.Context, idempotencyKey string, p domain.Product) (domain.Product, error) {
	if err := domain.Validate(p); err != nil {
		return domain.Product{}, err
	}

	if idempotencyKey != "" && s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, "product:"+idempotencyKey)
		if err != nil {
			return domain.Product{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Product{}, ErrDuplicateRequest
		}
	}

	if p.Rating == 0 {
		p.Rating = defaultRating
	}
	if p.LastRestocked == nil {
		now := time.Now().UTC().Truncate(time.Second)
		p.LastRestocked = &now
	}
	p = p.Classified()

	if err := s.db.CreateProduct(ctx, p); err != nil {
		if idempotencyKey != "" && s.cache != nil {
			if relErr := s.cache.ReleaseIdempotency(ctx, "product:"+idempotencyKey); relErr != nil {
				s.log.Warn("failed to release idempotency key", zap.String("key", idempotencyKey), zap.Error(relErr))
			}
		}
		return domain.Product{}, err
	}

	s.log.Info("product created", zap.String("id", p.ID), zap.String("status", string(p.Status)))
	return p, nil
}

// Replace overwrites every field of the product addressed by p.ID.
func (s *CatalogService) Replace(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := domain.Validate(p); err != nil {
		return domain.Product{}, err
	}
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if p.LastRestocked == nil {
		p.LastRestocked = existing.LastRestocked
	}
	p = p.Classified()

	if err := s.db.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Patch overlays the JSON fields present in patch onto the stored product.
// The id cannot be changed.
func (s *CatalogService) Patch(ctx context.Context, id string, patch json.RawMessage) (domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := json.Unmarshal(patch, &p); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	p.ID = id
	if err := domain.Validate(p); err != nil {
		return domain.Product{}, err
	}
	p = p.Classified()

	if err := s.db.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	s.log.Debug("product patched", zap.String("id", id), zap.Int("current_stock", p.CurrentStock))
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("id", id))
	return nil
}

// Dashboard summarises the whole catalogue.
func (s *CatalogService) Dashboard(ctx context.Context) (Dashboard, error) {
	products, err := s.db.ListProducts(ctx, domain.Criteria{})
	if err != nil {
		return Dashboard{}, err
	}
	byCategory, err := s.db.StockByCategory(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	recent := make([]domain.Product, len(products))
	copy(recent, products)
	sort.SliceStable(recent, func(i, j int) bool {
		return restockedAt(recent[i]).After(restockedAt(recent[j]))
	})
	if len(recent) > recentProducts {
		recent = recent[:recentProducts]
	}

	return Dashboard{
		Stats:          domain.ComputeStats(products),
		RecentProducts: recent,
		InventoryData:  byCategory,
	}, nil
}

func restockedAt(p domain.Product) time.Time {
	if p.LastRestocked == nil {
		return time.Time{}
	}
	return *p.LastRestocked
}
