// internal/healthkart/transform_test.go
package healthkart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealwatch/internal/common/errors"
	"dealwatch/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func newTestTransform(t *testing.T) *TransformService {
	return &TransformService{
		logger: logger.NewTestLogger(t),
		now:    func() time.Time { return fixedNow },
	}
}

func makeRaw(id int64) RawCatalogItem {
	return RawCatalogItem{
		ID:           id,
		Name:         "Biozyme Performance Whey",
		BrandName:    "MuscleBlaze",
		MRP:          4999,
		OfferPrice:   2749,
		Discount:     45,
		Rating:       4.4,
		ReviewCount:  812,
		InStock:      true,
		Orderable:    true,
		CategoryName: "Whey Proteins",
		URLFragment:  "/sv/biozyme-performance-whey/SP-12345",
		AttributeGroups: []AttributeGroup{
			{
				Name: "Basic Information",
				Attributes: []Attribute{
					{Name: "Weight", Value: "2 kg"},
					{Name: "Flavour", Value: "Rich Chocolate"},
				},
			},
			{
				Name: "Nutrition",
				Attributes: []Attribute{
					{Name: "Protein Per Serving", Value: "25g"},
					{Name: "Servings Per Container", Value: "55"},
					{Name: "Price Per Kg", Value: "1374.5"},
				},
			},
		},
	}
}

// ==========================
// Core Transformation Tests
// ==========================

func TestTransform_ToProduct_Valid(t *testing.T) {
	svc := newTestTransform(t)

	p, err := svc.ToProduct(makeRaw(12345))
	require.NoError(t, err)

	assert.Equal(t, "12345", p.ID)
	assert.Equal(t, "Biozyme Performance Whey", p.Name)
	assert.Equal(t, "MuscleBlaze", p.Brand)
	assert.Equal(t, "https://www.healthkart.com/sv/biozyme-performance-whey/SP-12345", p.URL)
	assert.Equal(t, 4999.0, p.OriginalPrice)
	assert.Equal(t, 2749.0, p.CurrentPrice)
	assert.True(t, p.InStock)

	assert.Equal(t, "2 kg", p.Weight)
	assert.Equal(t, "2-3kg", p.WeightBucket)
	assert.Equal(t, "Rich Chocolate", p.Flavor)
	assert.Equal(t, "Chocolate", p.FlavorBase)
	assert.Equal(t, "25g", p.ProteinPerServing)
	assert.Equal(t, 55, p.ServingsPerContainer)
	assert.InDelta(t, 1374.5, p.PricePerKg, 0.001)
	assert.Equal(t, fixedNow, p.LastUpdated)
}

func TestTransform_ToProduct_StockRequiresOrderable(t *testing.T) {
	svc := newTestTransform(t)

	raw := makeRaw(1)
	raw.InStock = true
	raw.Orderable = false

	p, err := svc.ToProduct(raw)
	require.NoError(t, err)
	assert.False(t, p.InStock, "listed but non-orderable items are treated as out of stock")
}

func TestTransform_ToProduct_MissingAttributesFallBack(t *testing.T) {
	svc := newTestTransform(t)

	raw := makeRaw(2)
	raw.AttributeGroups = nil

	p, err := svc.ToProduct(raw)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", p.Weight)
	assert.Equal(t, "Unknown", p.WeightBucket)
	assert.Equal(t, "Unknown", p.Flavor)
	assert.Equal(t, "Unknown", p.FlavorBase)
	assert.Equal(t, "0g", p.ProteinPerServing)
	assert.Equal(t, 0, p.ServingsPerContainer)
}

func TestTransform_ToProduct_InvalidRaw(t *testing.T) {
	svc := newTestTransform(t)

	tests := []struct {
		name   string
		mutate func(r *RawCatalogItem)
	}{
		{name: "non-positive id", mutate: func(r *RawCatalogItem) { r.ID = 0 }},
		{name: "empty name", mutate: func(r *RawCatalogItem) { r.Name = "  " }},
		{name: "empty brand", mutate: func(r *RawCatalogItem) { r.BrandName = "" }},
		{name: "empty url fragment", mutate: func(r *RawCatalogItem) { r.URLFragment = "" }},
		{name: "negative offer price", mutate: func(r *RawCatalogItem) { r.OfferPrice = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := makeRaw(7)
			tt.mutate(&raw)

			_, err := svc.ToProduct(raw)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeDataParsingFailed, errors.Normalize(err).Code)
		})
	}
}

func TestTransform_ToProducts_SkipsInvalidItems(t *testing.T) {
	svc := newTestTransform(t)

	bad := makeRaw(2)
	bad.Name = ""

	products := svc.ToProducts([]RawCatalogItem{makeRaw(1), bad, makeRaw(3)})

	require.Len(t, products, 2, "one bad record must not sink the batch")
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "3", products[1].ID)
}

func TestTransform_ToProducts_EmptyInput(t *testing.T) {
	svc := newTestTransform(t)
	assert.Empty(t, svc.ToProducts(nil))
}

// ==========================
// Attribute Normalization Tests
// ==========================

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{input: "24g", want: 24},
		{input: "25.5 g", want: 25.5},
		{input: "1374.5", want: 1374.5},
		{input: "55", want: 55},
		{input: "", want: 0},
		{input: "unknown", want: 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, coerceNumber(tt.input), 0.0001, "input %q", tt.input)
	}
}

func TestWeightBucket(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "250 g", want: "<0.5kg"},
		{input: "0.5 kg", want: "0.5-1kg"},
		{input: "1 kg", want: "1-2kg"},
		{input: "2000 g", want: "2-3kg"},
		{input: "2 kg", want: "2-3kg"},
		{input: "4.4 lb", want: "1-2kg"},
		{input: "5 kg", want: "5kg+"},
		{input: "10kg", want: "5kg+"},
		{input: "Unknown", want: "Unknown"},
		{input: "", want: "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WeightBucket(tt.input), "input %q", tt.input)
	}
}

func TestWeightBucket_UnitEquivalence(t *testing.T) {
	// The same physical weight in different units lands in the same bucket.
	assert.Equal(t, WeightBucket("2 kg"), WeightBucket("2000 g"))
	assert.Equal(t, WeightBucket("1 kg"), WeightBucket("1000g"))
}

func TestFlavorBase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Double Rich Chocolate", want: "Chocolate"},
		{input: "Chocolate Fudge", want: "Chocolate"},
		{input: "French Vanilla Creme", want: "Vanilla"},
		{input: "Unflavoured", want: "Unflavoured"},
		{input: "Unflavored", want: "Unflavoured"},
		{input: "Kesar Pista", want: "Kesar"},
		{input: "Rose Kheer", want: "Other"},
		{input: "Unknown", want: "Unknown"},
		{input: "", want: "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FlavorBase(tt.input), "input %q", tt.input)
	}
}

func TestRawCatalogItem_FindAttribute_CaseInsensitive(t *testing.T) {
	raw := makeRaw(1)

	val, ok := raw.FindAttribute("weight")
	require.True(t, ok)
	assert.Equal(t, "2 kg", val)

	val, ok = raw.FindAttribute("PROTEIN PER SERVING")
	require.True(t, ok)
	assert.Equal(t, "25g", val)

	_, ok = raw.FindAttribute("caffeine")
	assert.False(t, ok)
}
