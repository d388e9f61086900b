package domain

import "math"

type StockStatus string

const (
	StatusInStock    StockStatus = "in-stock"
	StatusLowStock   StockStatus = "low-stock"
	StatusOutOfStock StockStatus = "out-of-stock"
)

// Valid reports whether s is one of the three known labels.
func (s StockStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock:
		return true
	}
	return false
}

// ClassifyStock derives the stock label from the current level and the
// reorder floor. The ceiling does not take part in classification.
func ClassifyStock(current, floor, _ int) StockStatus {
	if current <= 0 {
		return StatusOutOfStock
	}
	if current <= floor {
		return StatusLowStock
	}
	return StatusInStock
}

// FillLevel returns current/ceiling clamped to [0, 1]. A zero or negative max
// yields 0 instead of dividing by zero.
func FillLevel(current, ceiling int) float64 {
	if ceiling <= 0 || current <= 0 {
		return 0
	}
	if current >= ceiling {
		return 1
	}
	return float64(current) / float64(ceiling)
}

// ApplyDelta floors the adjusted stock at zero and saturates at math.MaxInt.
func ApplyDelta(current, delta int) int {
	if delta > 0 && current > math.MaxInt-delta {
		return math.MaxInt
	}
	if delta < 0 && current < math.MinInt-delta {
		return 0
	}
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}
