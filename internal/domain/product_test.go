// internal/domain/product_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func validProduct() Product {
	return Product{
		ID:       "12345",
		Name:     "Biozyme Performance Whey",
		Brand:    "MuscleBlaze",
		Category: "Whey Proteins",
		URL:      "https://www.healthkart.com/sv/whey/12345",

		OriginalPrice:      4999,
		CurrentPrice:       2749,
		DiscountPercentage: 45,
		Rating:             4.4,
		ReviewCount:        812,
		InStock:            true,

		Weight:               "2 kg",
		Flavor:               "Rich Chocolate",
		ProteinPerServing:    "25g",
		ServingsPerContainer: 55,
	}
}

// ==========================
// Construction Tests
// ==========================

func TestNewProduct_Valid(t *testing.T) {
	p, err := NewProduct(validProduct())
	require.NoError(t, err)
	assert.Equal(t, "12345", p.ID)
	assert.False(t, p.LastUpdated.IsZero(), "construction stamps LastUpdated")
}

func TestNewProduct_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Product)
	}{
		{name: "empty id", mutate: func(p *Product) { p.ID = "" }},
		{name: "whitespace id", mutate: func(p *Product) { p.ID = "   " }},
		{name: "empty name", mutate: func(p *Product) { p.Name = "" }},
		{name: "empty brand", mutate: func(p *Product) { p.Brand = "" }},
		{name: "negative original price", mutate: func(p *Product) { p.OriginalPrice = -1 }},
		{name: "negative current price", mutate: func(p *Product) { p.CurrentPrice = -0.01 }},
		{name: "negative review count", mutate: func(p *Product) { p.ReviewCount = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validProduct()
			tt.mutate(&candidate)
			_, err := NewProduct(candidate)
			assert.Error(t, err)
		})
	}
}

func TestNewProduct_ClampsDiscountAndRating(t *testing.T) {
	tests := []struct {
		name             string
		discount, rating float64
		wantDiscount     float64
		wantRating       float64
	}{
		{name: "above range", discount: 150, rating: 7.2, wantDiscount: 100, wantRating: 5},
		{name: "below range", discount: -5, rating: -1, wantDiscount: 0, wantRating: 0},
		{name: "in range untouched", discount: 42.5, rating: 3.8, wantDiscount: 42.5, wantRating: 3.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validProduct()
			candidate.DiscountPercentage = tt.discount
			candidate.Rating = tt.rating

			p, err := NewProduct(candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, p.DiscountPercentage)
			assert.Equal(t, tt.wantRating, p.Rating)
		})
	}
}

// ==========================
// Derived Value Tests
// ==========================

func TestProduct_SavingsAmount(t *testing.T) {
	p, err := NewProduct(validProduct())
	require.NoError(t, err)
	assert.InDelta(t, 2250, p.SavingsAmount(), 0.001)
}

func TestProduct_PricePerGramProtein(t *testing.T) {
	tests := []struct {
		name     string
		protein  string
		servings int
		want     float64
	}{
		{name: "normal", protein: "25g", servings: 55, want: 2749.0 / (25 * 55)},
		{name: "decimal protein", protein: "24.5 g", servings: 10, want: 2749.0 / 245},
		{name: "zero protein guards division", protein: "0g", servings: 55, want: 0},
		{name: "zero servings guards division", protein: "25g", servings: 0, want: 0},
		{name: "unparsable protein", protein: "high", servings: 55, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validProduct()
			candidate.ProteinPerServing = tt.protein
			candidate.ServingsPerContainer = tt.servings

			p, err := NewProduct(candidate)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p.PricePerGramProtein(), 0.0001)
		})
	}
}

func TestProduct_UpdatePricing_DoesNotMutateReceiver(t *testing.T) {
	original, err := NewProduct(validProduct())
	require.NoError(t, err)
	originalPrice := original.CurrentPrice
	originalStamp := original.LastUpdated

	time.Sleep(time.Millisecond)
	updated, err := original.UpdatePricing(1999, 60)
	require.NoError(t, err)

	assert.Equal(t, originalPrice, original.CurrentPrice, "receiver is a value, never mutated")
	assert.Equal(t, originalStamp, original.LastUpdated)
	assert.Equal(t, 1999.0, updated.CurrentPrice)
	assert.Equal(t, 60.0, updated.DiscountPercentage)
	assert.True(t, updated.LastUpdated.After(originalStamp))
}

func TestProduct_UpdatePricing_RevalidatesInput(t *testing.T) {
	original, err := NewProduct(validProduct())
	require.NoError(t, err)

	_, err = original.UpdatePricing(-10, 50)
	assert.Error(t, err)

	clamped, err := original.UpdatePricing(1999, 150)
	require.NoError(t, err)
	assert.Equal(t, 100.0, clamped.DiscountPercentage)
}

// ==========================
// Criteria Matching Tests
// ==========================

func TestProduct_MeetsAlertCriteria(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Product)
		criteria FilterCriteria
		want     bool
	}{
		{
			name:     "qualifies on discount alone",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40},
			want:     true,
		},
		{
			name:     "out of stock never qualifies",
			mutate:   func(p *Product) { p.InStock = false },
			criteria: FilterCriteria{MinDiscount: 0},
			want:     false,
		},
		{
			name:     "discount below floor",
			mutate:   func(p *Product) { p.DiscountPercentage = 30 },
			criteria: FilterCriteria{MinDiscount: 40},
			want:     false,
		},
		{
			name:     "price above cap",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, MaxPrice: Float64Ptr(2000)},
			want:     false,
		},
		{
			name:     "rating below floor",
			mutate:   func(p *Product) { p.Rating = 3.9 },
			criteria: FilterCriteria{MinDiscount: 40, MinRating: Float64Ptr(4.0)},
			want:     false,
		},
		{
			name:     "too few reviews",
			mutate:   func(p *Product) { p.ReviewCount = 5 },
			criteria: FilterCriteria{MinDiscount: 40, MinReviews: IntPtr(100)},
			want:     false,
		},
		{
			name:     "brand matches case-insensitively as substring",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, Brands: []string{"muscleblaze"}},
			want:     true,
		},
		{
			name:     "brand list excludes product",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, Brands: []string{"GNC", "Optimum Nutrition"}},
			want:     false,
		},
		{
			name:     "category list excludes product",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, Categories: []string{"Mass Gainers"}},
			want:     false,
		},
		{
			name:     "category matches case-insensitively as substring",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, Categories: []string{"whey"}},
			want:     true,
		},
		{
			name:     "flavor list excludes product",
			mutate:   func(p *Product) { p.Flavor = "French Vanilla" },
			criteria: FilterCriteria{MinDiscount: 40, Flavors: []string{"chocolate"}},
			want:     false,
		},
		{
			name:     "flavor matches case-insensitively as substring",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, Flavors: []string{"chocolate"}},
			want:     true,
		},
		{
			name:     "all optional constraints satisfied",
			mutate:   func(p *Product) {},
			criteria: FilterCriteria{MinDiscount: 40, MaxPrice: Float64Ptr(3000), MinRating: Float64Ptr(4.0), MinReviews: IntPtr(500), Brands: []string{"MuscleBlaze"}},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validProduct()
			tt.mutate(&candidate)
			p, err := NewProduct(candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.MeetsAlertCriteria(tt.criteria))
		})
	}
}

func TestFilterProducts_PureAndStable(t *testing.T) {
	a, _ := NewProduct(validProduct())

	b := validProduct()
	b.ID = "67890"
	b.DiscountPercentage = 20
	low, _ := NewProduct(b)

	c := validProduct()
	c.ID = "11111"
	c.InStock = false
	oos, _ := NewProduct(c)

	input := []Product{a, low, oos}
	criteria := FilterCriteria{MinDiscount: 40}

	first := FilterProducts(input, criteria)
	second := FilterProducts(input, criteria)

	require.Len(t, first, 1)
	assert.Equal(t, a.ID, first[0].ID)
	assert.Equal(t, first, second, "same inputs produce the same output")
	assert.Len(t, input, 3, "input slice untouched")
}

func TestFilterProducts_EmptyInput(t *testing.T) {
	out := FilterProducts(nil, FilterCriteria{MinDiscount: 40})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
