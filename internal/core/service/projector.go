package service

import (
	"sync"

	"github.com/rl1809/inventory-console/internal/core/domain"
)

// Projector holds the session's product snapshot and answers derived
// queries over it. All writes replace, append or remove whole records; no
// aggregate is stored apart from the snapshot.
type Projector struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewProjector() *Projector {
	return &Projector{}
}

// Load replaces the snapshot.
func (p *Projector) Load(records []domain.Product) {
	next := make([]domain.Product, len(records))
	for i, r := range records {
		next[i] = r.Classified()
	}

	p.mu.Lock()
	p.products = next
	p.mu.Unlock()
}

// Snapshot returns a copy of the records in insertion order.
func (p *Projector) Snapshot() []domain.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Product, len(p.products))
	copy(out, p.products)
	return out
}

func (p *Projector) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.products)
}

// Get returns the record with the given id.
func (p *Projector) Get(id string) (domain.Product, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i := p.indexOf(id); i >= 0 {
		return p.products[i], true
	}
	return domain.Product{}, false
}

// Filter is a stable, side-effect-free query over the snapshot.
func (p *Projector) Filter(criteria domain.Criteria) []domain.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Product, 0, len(p.products))
	for _, r := range p.products {
		if criteria.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// ComputeStats aggregates the live snapshot on every call.
func (p *Projector) ComputeStats() domain.Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.ComputeStats(p.products)
}

func (p *Projector) StockByCategory() []domain.CategoryStock {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.StockByCategory(p.products)
}

// Add appends a confirmed record. Uniqueness of ids is the backend's concern.
func (p *Projector) Add(record domain.Product) (domain.Product, error) {
	if err := domain.Validate(record); err != nil {
		return domain.Product{}, err
	}
	record = record.Classified()

	p.mu.Lock()
	p.products = append(p.products, record)
	p.mu.Unlock()
	return record, nil
}

// Update replaces the record with the same id. An unknown id is a no-op.
// The record is expected to be the backend's confirmed copy, so it is not
// validated again.
func (p *Projector) Update(record domain.Product) {
	p.replace(record.Classified())
}

// Remove drops the record with the given id. An unknown id is a no-op.
func (p *Projector) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(id)
	if i < 0 {
		return
	}
	next := make([]domain.Product, 0, len(p.products)-1)
	next = append(next, p.products[:i]...)
	p.products = append(next, p.products[i+1:]...)
}

// PlanAdjustment computes the record that results from moving id's stock by
// delta, floored at zero. The snapshot is not touched.
func (p *Projector) PlanAdjustment(id string, delta int) (domain.Product, error) {
	current, ok := p.Get(id)
	if !ok {
		return domain.Product{}, &domain.NotFoundError{ID: id}
	}
	current.CurrentStock = domain.ApplyDelta(current.CurrentStock, delta)
	return current.Classified(), nil
}

func (p *Projector) replace(record domain.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := p.indexOf(record.ID); i >= 0 {
		p.products[i] = record
	}
}

// indexOf must be called with mu held.
func (p *Projector) indexOf(id string) int {
	for i := range p.products {
		if p.products[i].ID == id {
			return i
		}
	}
	return -1
}
