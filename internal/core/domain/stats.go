package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	InStock       int             `json:"inStock"`
	LowStock      int             `json:"lowStock"`
	OutOfStock    int             `json:"outOfStock"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	LowStockItems []Product       `json:"lowStockItems"`
}

// ComputeStats reduces records into aggregate counters. It keeps no state
// between calls.
func ComputeStats(records []Product) Stats {
	stats := Stats{
		TotalProducts: len(records),
		TotalValue:    decimal.Zero,
		LowStockItems: []Product{},
	}
	for _, p := range records {
		switch p.Status {
		case StatusInStock:
			stats.InStock++
		case StatusLowStock:
			stats.LowStock++
		case StatusOutOfStock:
			stats.OutOfStock++
		}
		stats.TotalValue = stats.TotalValue.Add(p.StockValue())
		if p.CurrentStock <= p.MinStock {
			stats.LowStockItems = append(stats.LowStockItems, p)
		}
	}
	return stats
}

// StockByCategory sums current stock per category, largest first. Records
// without a category are grouped under "Uncategorized".
func StockByCategory(records []Product) []CategoryStock {
	idx := make(map[string]int)
	out := []CategoryStock{}
	for _, p := range records {
		name := p.Category
		if name == "" {
			name = "Uncategorized"
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, CategoryStock{Name: name})
		}
		out[i].Stock += p.CurrentStock
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock > out[j].Stock })
	return out
}
