package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Supplier      string          `json:"supplier"`
	Location      string          `json:"location"`
	CurrentStock  int             `json:"current_stock"`
	MinStock      int             `json:"min_stock"`
	MaxStock      int             `json:"max_stock"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Status        StockStatus     `json:"status"`
	LastRestocked *time.Time      `json:"last_restocked,omitempty"`
	Image         string          `json:"image"`
	Rating        int             `json:"rating"`
	Reviews       int             `json:"reviews"`
}

// Classified returns a copy of p whose Status is derived from its stock levels.
func (p Product) Classified() Product {
	p.Status = ClassifyStock(p.CurrentStock, p.MinStock, p.MaxStock)
	return p
}

// StockValue is current_stock × unit_cost.
func (p Product) StockValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(int64(p.CurrentStock)))
}

// FillLevel reports how full the product's shelf is relative to MaxStock.
func (p Product) FillLevel() float64 {
	return FillLevel(p.CurrentStock, p.MaxStock)
}

// CategoryStock is one row of the stock-by-category breakdown.
type CategoryStock struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}
