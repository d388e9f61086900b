package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/port"
)

// InventoryService pairs the projector with the backend. Every mutation is
// confirmed by the backend before the snapshot changes; a failed call leaves
// the snapshot exactly as it was.
type InventoryService struct {
	gateway   port.ProductGateway
	projector *Projector
	log       *zap.Logger
}

func NewInventoryService(gateway port.ProductGateway, projector *Projector) *InventoryService {
	if projector == nil {
		projector = NewProjector()
	}
	return &InventoryService{
		gateway:   gateway,
		projector: projector,
		log:       zap.L().Named("inventory"),
	}
}

func (s *InventoryService) Projector() *Projector {
	return s.projector
}

// Refresh fetches the full product list and replaces the snapshot.
func (s *InventoryService) Refresh(ctx context.Context) error {
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return err
	}
	s.projector.Load(products)
	s.log.Debug("snapshot loaded", zap.Int("products", len(products)))
	return nil
}

func (s *InventoryService) Filter(criteria domain.Criteria) []domain.Product {
	return s.projector.Filter(criteria)
}

func (s *InventoryService) Stats() domain.Stats {
	return s.projector.ComputeStats()
}

func (s *InventoryService) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := domain.Validate(product); err != nil {
		return domain.Product{}, err
	}

	created, err := s.gateway.CreateProduct(ctx, product.Classified())
	if err != nil {
		return domain.Product{}, err
	}

	added, err := s.projector.Add(created)
	if err != nil {
		return domain.Product{}, fmt.Errorf("backend returned invalid product: %w", err)
	}
	s.log.Info("product added", zap.String("id", added.ID), zap.String("status", string(added.Status)))
	return added, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := domain.Validate(product); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.gateway.ReplaceProduct(ctx, product.Classified())
	if err != nil {
		return domain.Product{}, err
	}

	updated = updated.Classified()
	s.projector.Update(updated)
	s.log.Info("product updated", zap.String("id", updated.ID))
	return updated, nil
}

func (s *InventoryService) RemoveProduct(ctx context.Context, id string) error {
	if err := domain.RequireFields("id", id); err != nil {
		return err
	}

	if err := s.gateway.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.projector.Remove(id)
	s.log.Info("product removed", zap.String("id", id))
	return nil
}

// AdjustStock moves a product's stock by delta, never below zero, and
// reclassifies its status. The id must be present in the snapshot.
func (s *InventoryService) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	planned, err := s.projector.PlanAdjustment(id, delta)
	if err != nil {
		return domain.Product{}, err
	}

	confirmed, err := s.gateway.PatchProduct(ctx, id, map[string]any{
		"current_stock": planned.CurrentStock,
		"status":        planned.Status,
	})
	if err != nil {
		return domain.Product{}, err
	}

	confirmed = confirmed.Classified()
	s.projector.Update(confirmed)
	s.log.Info("stock adjusted",
		zap.String("id", id),
		zap.Int("delta", delta),
		zap.Int("current_stock", confirmed.CurrentStock),
		zap.String("status", string(confirmed.Status)),
	)
	return confirmed, nil
}
