package domain

import "strings"

// All is the filter sentinel that matches every value.
const All = "all"

type Criteria struct {
	Search   string
	Category string
	Status   string
	Supplier string
}

// Matches ANDs the four predicates. Empty Category/Status/Supplier are
// treated like All.
func (c Criteria) Matches(p Product) bool {
	return c.matchSearch(p) &&
		matchExact(c.Category, p.Category) &&
		matchExact(c.Status, string(p.Status)) &&
		matchExact(c.Supplier, p.Supplier)
}

func (c Criteria) matchSearch(p Product) bool {
	if c.Search == "" {
		return true
	}
	term := strings.ToLower(c.Search)
	for _, field := range []string{p.ID, p.SKU, p.Name, p.Location} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	// barcodes are matched verbatim
	return p.Barcode != "" && strings.Contains(p.Barcode, c.Search)
}

func matchExact(want, got string) bool {
	return want == "" || want == All || want == got
}
