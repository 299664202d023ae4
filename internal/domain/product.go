// Package domain holds the normalized product model and deal criteria
// matching. Products are value types: constructed once, never mutated.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Product is a normalized, validated catalog record.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	URL      string `json:"url"`

	OriginalPrice      float64 `json:"originalPrice"`
	CurrentPrice       float64 `json:"currentPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
	Rating             float64 `json:"rating"`
	ReviewCount        int     `json:"reviewCount"`
	InStock            bool    `json:"inStock"`

	Weight               string  `json:"weight"`
	WeightBucket         string  `json:"weightBucket"`
	Flavor               string  `json:"flavor"`
	FlavorBase           string  `json:"flavorBase"`
	ProteinPerServing    string  `json:"proteinPerServing"`
	ProteinPercentage    float64 `json:"proteinPercentage"`
	ServingsPerContainer int     `json:"servingsPerContainer"`
	PricePerKg           float64 `json:"pricePerKg"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// NewProduct validates and constructs a Product. Discount and rating are
// clamped into their valid ranges; empty identity fields, negative prices or
// negative review counts fail construction.
func NewProduct(p Product) (Product, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Product{}, fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Product{}, fmt.Errorf("product name is required")
	}
	if strings.TrimSpace(p.Brand) == "" {
		return Product{}, fmt.Errorf("product brand is required")
	}
	if p.OriginalPrice < 0 || p.CurrentPrice < 0 {
		return Product{}, fmt.Errorf("product prices must be non-negative")
	}
	if p.ReviewCount < 0 {
		return Product{}, fmt.Errorf("review count must be non-negative")
	}
	if p.ServingsPerContainer < 0 {
		p.ServingsPerContainer = 0
	}
	if p.PricePerKg < 0 {
		p.PricePerKg = 0
	}

	p.DiscountPercentage = clamp(p.DiscountPercentage, 0, 100)
	p.Rating = clamp(p.Rating, 0, 5)

	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now().UTC()
	}

	return p, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SavingsAmount is the absolute discount in currency units.
func (p Product) SavingsAmount() float64 {
	return p.OriginalPrice - p.CurrentPrice
}

// PricePerGramProtein divides the current price by total protein grams in the
// container. Returns 0 when either factor is zero so callers never divide by
// zero.
func (p Product) PricePerGramProtein() float64 {
	grams := parseLeadingNumber(p.ProteinPerServing) * float64(p.ServingsPerContainer)
	if grams <= 0 {
		return 0
	}
	return p.CurrentPrice / grams
}

// UpdatePricing returns a new Product with updated price, discount and
// timestamp. The receiver is not modified.
func (p Product) UpdatePricing(newPrice, newDiscount float64) (Product, error) {
	next := p
	next.CurrentPrice = newPrice
	next.DiscountPercentage = newDiscount
	next.LastUpdated = time.Now().UTC()
	return NewProduct(next)
}

// MeetsAlertCriteria reports whether the product qualifies as a deal.
// Out-of-stock products never qualify regardless of other criteria.
func (p Product) MeetsAlertCriteria(c FilterCriteria) bool {
	if !p.InStock {
		return false
	}
	if p.DiscountPercentage < c.MinDiscount {
		return false
	}
	if c.MaxPrice != nil && p.CurrentPrice > *c.MaxPrice {
		return false
	}
	if c.MinRating != nil && p.Rating < *c.MinRating {
		return false
	}
	if c.MinReviews != nil && p.ReviewCount < *c.MinReviews {
		return false
	}
	if len(c.Brands) > 0 && !containsAnyFold(p.Brand, c.Brands) {
		return false
	}
	if len(c.Categories) > 0 && !containsAnyFold(p.Category, c.Categories) {
		return false
	}
	if len(c.Flavors) > 0 && !containsAnyFold(p.Flavor, c.Flavors) {
		return false
	}
	return true
}

// containsAnyFold reports whether s case-insensitively contains any of the
// given substrings.
func containsAnyFold(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// parseLeadingNumber extracts the numeric prefix of strings like "24g" or
// "25.5 g". Unparsable input yields 0.
func parseLeadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	var (
		val     float64
		frac    float64 = 0.1
		inFrac  bool
		seenDig bool
	)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDig = true
			if inFrac {
				val += float64(r-'0') * frac
				frac /= 10
			} else {
				val = val*10 + float64(r-'0')
			}
		case r == '.' && !inFrac:
			inFrac = true
		default:
			if seenDig {
				return val
			}
			if r != ' ' {
				return 0
			}
		}
	}
	return val
}
