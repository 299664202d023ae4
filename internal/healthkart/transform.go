package healthkart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealwatch/internal/common/errors"
	"dealwatch/internal/common/logger"
	"dealwatch/internal/domain"
)

// Known attribute keys in the vendor's attribute groups. Anything outside
// this table falls back to defaults instead of failing the transform.
const (
	attrWeight            = "weight"
	attrFlavor            = "flavour"
	attrProteinPerServing = "protein per serving"
	attrProteinPercentage = "protein percentage"
	attrServings          = "servings per container"
	attrServingSize       = "serving size"
	attrPricePerKg        = "price per kg"
)

const (
	defaultWeight  = "Unknown"
	defaultFlavor  = "Unknown"
	defaultProtein = "0g"
)

// TransformService maps vendor records to validated domain Products.
type TransformService struct {
	logger logger.Logger
	now    func() time.Time
}

func NewTransformService(log logger.Logger) *TransformService {
	return &TransformService{logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// ToProduct converts one raw catalog item into one validated Product.
func (t *TransformService) ToProduct(raw RawCatalogItem) (domain.Product, error) {
	if err := validateRaw(raw); err != nil {
		return domain.Product{}, errors.NewDataParsingError(raw.ID, err)
	}

	weight := attributeOrDefault(raw, attrWeight, defaultWeight)
	flavor := attributeOrDefault(raw, attrFlavor, defaultFlavor)
	proteinPerServing := attributeOrDefault(raw, attrProteinPerServing, defaultProtein)

	product, err := domain.NewProduct(domain.Product{
		ID:       strconv.FormatInt(raw.ID, 10),
		Name:     strings.TrimSpace(raw.Name),
		Brand:    strings.TrimSpace(raw.BrandName),
		Category: strings.TrimSpace(raw.CategoryName),
		URL:      "https://www.healthkart.com" + raw.URLFragment,

		OriginalPrice:      raw.MRP,
		CurrentPrice:       raw.OfferPrice,
		DiscountPercentage: raw.Discount,
		Rating:             raw.Rating,
		ReviewCount:        raw.ReviewCount,
		InStock:            raw.InStock && raw.Orderable,

		Weight:               weight,
		WeightBucket:         WeightBucket(weight),
		Flavor:               flavor,
		FlavorBase:           FlavorBase(flavor),
		ProteinPerServing:    proteinPerServing,
		ProteinPercentage:    coerceNumber(attributeOrDefault(raw, attrProteinPercentage, "0")),
		ServingsPerContainer: int(coerceNumber(attributeOrDefault(raw, attrServings, "0"))),
		PricePerKg:           coerceNumber(attributeOrDefault(raw, attrPricePerKg, "0")),

		LastUpdated: t.now(),
	})
	if err != nil {
		return domain.Product{}, errors.NewDataParsingError(raw.ID, err)
	}

	return product, nil
}

// ToProducts maps a whole raw item list, skipping items that fail
// transformation. Skipped ids are logged, never fatal to the batch.
func (t *TransformService) ToProducts(raws []RawCatalogItem) []domain.Product {
	products := make([]domain.Product, 0, len(raws))
	var skipped []int64

	for _, raw := range raws {
		product, err := t.ToProduct(raw)
		if err != nil {
			skipped = append(skipped, raw.ID)
			t.logger.Debug("skipping raw catalog item", map[string]interface{}{
				"itemId": raw.ID,
				"error":  err.Error(),
			})
			continue
		}
		products = append(products, product)
	}

	if len(skipped) > 0 {
		t.logger.Warn("some raw catalog items failed transformation", map[string]interface{}{
			"skippedCount": len(skipped),
			"skippedIds":   skipped,
		})
	}

	return products
}

func validateRaw(raw RawCatalogItem) error {
	if raw.ID <= 0 {
		return fmt.Errorf("raw item id must be positive, got %d", raw.ID)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return fmt.Errorf("raw item %d has an empty name", raw.ID)
	}
	if strings.TrimSpace(raw.BrandName) == "" {
		return fmt.Errorf("raw item %d has an empty brand", raw.ID)
	}
	if strings.TrimSpace(raw.URLFragment) == "" {
		return fmt.Errorf("raw item %d has an empty url fragment", raw.ID)
	}
	return nil
}

func attributeOrDefault(raw RawCatalogItem, key, fallback string) string {
	if val, ok := raw.FindAttribute(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

// coerceNumber accepts numeric text with units ("24g", "Rs. 1,299") and
// strips everything non-numeric. Unparsable values coerce to 0.
func coerceNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	val, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return val
}

// WeightBucket derives a normalized categorical label from free-text weight.
// The text is normalized to kilograms first, so "2 kg" and "2000 g" always
// land in the same bucket.
func WeightBucket(weight string) string {
	kg := weightInKg(weight)
	switch {
	case kg <= 0:
		return "Unknown"
	case kg < 0.5:
		return "<0.5kg"
	case kg < 1:
		return "0.5-1kg"
	case kg < 2:
		return "1-2kg"
	case kg < 3:
		return "2-3kg"
	case kg < 5:
		return "3-5kg"
	default:
		return "5kg+"
	}
}

// weightInKg parses "2 kg", "2000g", "1 lb" style text into kilograms.
func weightInKg(weight string) float64 {
	lower := strings.ToLower(strings.TrimSpace(weight))
	val := coerceNumber(lower)
	if val == 0 {
		return 0
	}
	switch {
	case strings.Contains(lower, "kg"):
		return val
	case strings.Contains(lower, "lb") || strings.Contains(lower, "pound"):
		return val * 0.4536
	case strings.Contains(lower, "g"):
		return val / 1000
	default:
		// Bare numbers on supplement listings are conventionally kilograms.
		return val
	}
}

// flavorBases is checked in order; the first base contained in the flavor
// text wins, so "Double Rich Chocolate" and "Chocolate Fudge" group together.
var flavorBases = []string{
	"chocolate",
	"vanilla",
	"strawberry",
	"mango",
	"banana",
	"coffee",
	"mocha",
	"cookie",
	"caramel",
	"kesar",
	"elaichi",
	"unflavoured",
	"unflavored",
}

// FlavorBase derives a normalized class from free-text flavor.
func FlavorBase(flavor string) string {
	lower := strings.ToLower(flavor)
	for _, base := range flavorBases {
		if strings.Contains(lower, base) {
			if base == "unflavored" {
				base = "unflavoured"
			}
			return strings.ToUpper(base[:1]) + base[1:]
		}
	}
	if strings.TrimSpace(flavor) == "" || flavor == defaultFlavor {
		return "Unknown"
	}
	return "Other"
}
