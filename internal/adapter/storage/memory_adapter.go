package storage

import (
	"context"
	"sync"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/port"
)

type memoryEntry struct {
	p   domain.Product
	seq uint64
}

// MemoryAdapter is a process-local product repository used when no MySQL DSN
// is configured.
type MemoryAdapter struct {
	mu      sync.RWMutex
	m       map[string]memoryEntry
	nextSeq uint64
}

var _ port.DatabaseRepository = (*MemoryAdapter)(nil)

func NewMemoryAdapter(seed ...domain.Product) *MemoryAdapter {
	m := &MemoryAdapter{m: make(map[string]memoryEntry)}
	for _, p := range seed {
		_ = m.CreateProduct(context.Background(), p)
	}
	return m
}

func (m *MemoryAdapter) ListProducts(ctx context.Context, criteria domain.Criteria) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ordered := make([]domain.Product, m.nextSeq)
	present := make([]bool, m.nextSeq)
	for _, e := range m.m {
		ordered[e.seq] = e.p
		present[e.seq] = true
	}

	out := []domain.Product{}
	for i, p := range ordered {
		if present[i] && criteria.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.m[id]
	if !ok {
		return nil, nil
	}
	p := e.p
	return &p, nil
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.m[p.ID]; ok {
		return domain.ErrDuplicateProduct
	}
	m.m[p.ID] = memoryEntry{p: p, seq: m.nextSeq}
	m.nextSeq++
	return nil
}

func (m *MemoryAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.m[p.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	e.p = p
	m.m[p.ID] = e
	return nil
}

func (m *MemoryAdapter) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.m[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.m, id)
	return nil
}

func (m *MemoryAdapter) StockByCategory(ctx context.Context) ([]domain.CategoryStock, error) {
	products, _ := m.ListProducts(ctx, domain.Criteria{})
	return domain.StockByCategory(products), nil
}
