package domain

// FilterCriteria is the user-configured deal definition. It is a pure input
// value with no identity; nil optionals mean "not constrained".
type FilterCriteria struct {
	MinDiscount float64  `json:"minDiscount"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	MinRating   *float64 `json:"minRating,omitempty"`
	MinReviews  *int     `json:"minReviews,omitempty"`
	InStockOnly bool     `json:"inStockOnly"`
	Brands      []string `json:"brands,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Flavors     []string `json:"flavors,omitempty"`

	// WeightBuckets is parsed and carried but not applied by the filter.
	// Enable once product requirements settle on bucket boundaries.
	WeightBuckets []string `json:"weightBuckets,omitempty"`
}

// FilterProducts returns the products matching the criteria. It is a pure
// function of its inputs: no hidden state, same output on every call.
func FilterProducts(products []Product, criteria FilterCriteria) []Product {
	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if p.MeetsAlertCriteria(criteria) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Float64Ptr and IntPtr are helpers for building criteria literals.
func Float64Ptr(v float64) *float64 { return &v }
func IntPtr(v int) *int             { return &v }
