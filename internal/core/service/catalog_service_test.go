package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-console/internal/core/domain"
)

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	released       int
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	m.released++
	return nil
}

// Mock DatabaseRepository
type mockDatabaseRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	order    []string
}

func newMockDatabaseRepo(products ...domain.Product) *mockDatabaseRepo {
	m := &mockDatabaseRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *mockDatabaseRepo) ListProducts(ctx context.Context, criteria domain.Criteria) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, id := range m.order {
		if p := m.products[id]; criteria.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockDatabaseRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockDatabaseRepo) CreateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok {
		return domain.ErrDuplicateProduct
	}
	m.products[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockDatabaseRepo) UpdateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockDatabaseRepo) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockDatabaseRepo) StockByCategory(ctx context.Context) ([]domain.CategoryStock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.Product, 0, len(m.order))
	for _, id := range m.order {
		all = append(all, m.products[id])
	}
	return domain.StockByCategory(all), nil
}

func newProduct(id string, stock int) domain.Product {
	return domain.Product{
		ID: id, Name: "Lamp " + id, Category: "Home", Supplier: "Acme",
		CurrentStock: stock, MinStock: 10, MaxStock: 50, UnitCost: decimal.NewFromInt(5),
	}
}

func TestCreate_DerivesStatusAndDefaults(t *testing.T) {
	db := newMockDatabaseRepo()
	svc := NewCatalogService(db, newMockCacheRepo())

	p := newProduct("P1", 3)
	p.Status = domain.StatusInStock
	created, err := svc.Create(context.Background(), "key-1", p)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if created.Status != domain.StatusLowStock {
		t.Errorf("expected low-stock, got %s", created.Status)
	}
	if created.Rating != 5 {
		t.Errorf("expected default rating 5, got %d", created.Rating)
	}
	if created.LastRestocked == nil {
		t.Error("expected last_restocked to be stamped")
	}
	if db.products["P1"].Status != domain.StatusLowStock {
		t.Errorf("stored status not derived: %s", db.products["P1"].Status)
	}
}

func TestCreate_DuplicateRequest(t *testing.T) {
	db := newMockDatabaseRepo()
	svc := NewCatalogService(db, newMockCacheRepo())

	if _, err := svc.Create(context.Background(), "key-1", newProduct("P1", 3)); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.Create(context.Background(), "key-1", newProduct("P2", 3))
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}
	if len(db.products) != 1 {
		t.Errorf("expected 1 product, got %d", len(db.products))
	}
}

func TestCreate_FailureReleasesKey(t *testing.T) {
	db := newMockDatabaseRepo(newProduct("P1", 3))
	cache := newMockCacheRepo()
	svc := NewCatalogService(db, cache)

	_, err := svc.Create(context.Background(), "key-1", newProduct("P1", 3))
	if !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Fatalf("expected ErrDuplicateProduct, got: %v", err)
	}
	if cache.released != 1 {
		t.Errorf("expected key to be released, got %d releases", cache.released)
	}

	if _, err := svc.Create(context.Background(), "key-1", newProduct("P2", 3)); err != nil {
		t.Errorf("retry with released key failed: %v", err)
	}
}

func TestCreate_ValidationSkipsIdempotency(t *testing.T) {
	cache := newMockCacheRepo()
	svc := NewCatalogService(newMockDatabaseRepo(), cache)

	_, err := svc.Create(context.Background(), "key-1", domain.Product{ID: "P1"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}
	if len(cache.idempotencySet) != 0 {
		t.Error("invalid request must not claim the key")
	}
}

func TestCreate_ConcurrentSameKey(t *testing.T) {
	db := newMockDatabaseRepo()
	svc := NewCatalogService(db, newMockCacheRepo())

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := newProduct("P"+string(rune('A'+i)), 3)
			if _, err := svc.Create(context.Background(), "same-key", p); err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}
}

func TestPatch_OverlaysFieldsAndReclassifies(t *testing.T) {
	db := newMockDatabaseRepo(newProduct("P1", 8).Classified())
	svc := NewCatalogService(db, nil)

	patched, err := svc.Patch(context.Background(), "P1", json.RawMessage(`{"current_stock": 13, "id": "HIJACK"}`))
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}

	if patched.ID != "P1" {
		t.Errorf("id must not change, got %s", patched.ID)
	}
	if patched.CurrentStock != 13 || patched.Status != domain.StatusInStock {
		t.Errorf("expected 13 in-stock, got %d %s", patched.CurrentStock, patched.Status)
	}
	if patched.Name != "Lamp P1" {
		t.Errorf("untouched fields must survive, got name %q", patched.Name)
	}
	if _, ok := db.products["HIJACK"]; ok {
		t.Error("patch must not create a new id")
	}
}

func TestPatch_NotFound(t *testing.T) {
	svc := NewCatalogService(newMockDatabaseRepo(), nil)

	_, err := svc.Patch(context.Background(), "missing", json.RawMessage(`{"current_stock": 1}`))
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got: %v", err)
	}
}

func TestPatch_WrongFieldType(t *testing.T) {
	db := newMockDatabaseRepo(newProduct("P1", 8).Classified())
	svc := NewCatalogService(db, nil)

	_, err := svc.Patch(context.Background(), "P1", json.RawMessage(`{"current_stock": "lots"}`))
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload, got: %v", err)
	}
	if db.products["P1"].CurrentStock != 8 {
		t.Errorf("stored stock must be untouched, got %d", db.products["P1"].CurrentStock)
	}
}

func TestReplace_KeepsRestockStamp(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := newProduct("P1", 8)
	existing.LastRestocked = &stamp
	db := newMockDatabaseRepo(existing)
	svc := NewCatalogService(db, nil)

	replaced, err := svc.Replace(context.Background(), newProduct("P1", 0))
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if replaced.Status != domain.StatusOutOfStock {
		t.Errorf("expected out-of-stock, got %s", replaced.Status)
	}
	if replaced.LastRestocked == nil || !replaced.LastRestocked.Equal(stamp) {
		t.Errorf("expected restock stamp to be kept, got %v", replaced.LastRestocked)
	}
}

func TestDelete(t *testing.T) {
	db := newMockDatabaseRepo(newProduct("P1", 8))
	svc := NewCatalogService(db, nil)

	if err := svc.Delete(context.Background(), "P1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), "P1"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got: %v", err)
	}
}

func TestDashboard(t *testing.T) {
	var products []domain.Product
	for i := 0; i < 7; i++ {
		p := newProduct("P"+string(rune('0'+i)), i*5).Classified()
		stamp := time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		p.LastRestocked = &stamp
		products = append(products, p)
	}
	svc := NewCatalogService(newMockDatabaseRepo(products...), nil)

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}

	if d.Stats.TotalProducts != 7 {
		t.Errorf("expected 7 products, got %d", d.Stats.TotalProducts)
	}
	if len(d.RecentProducts) != 5 || d.RecentProducts[0].ID != "P6" {
		t.Errorf("expected 5 most recent starting with P6, got %v", ids(d.RecentProducts))
	}
	if len(d.InventoryData) != 1 || d.InventoryData[0].Stock != 105 {
		t.Errorf("unexpected inventory data: %+v", d.InventoryData)
	}
}
