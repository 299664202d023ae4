// Package healthkart talks to the HealthKart catalog API and normalizes its
// vendor records into domain Products.
package healthkart

import "strings"

// CategoryPageResponse is the fixed envelope of the category-listing endpoint.
type CategoryPageResponse struct {
	Exception  bool             `json:"exception"`
	TotalCount int              `json:"total_count"`
	PerPage    int              `json:"per_page"`
	PageNo     int              `json:"page_no"`
	Items      []RawCatalogItem `json:"items"`
}

// RawCatalogItem is the vendor record shape. It is external and not owned by
// this service; fields are passed through untouched until transformation.
type RawCatalogItem struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	BrandName       string           `json:"brand_name"`
	MRP             float64          `json:"mrp"`
	OfferPrice      float64          `json:"offer_price"`
	Discount        float64          `json:"discount"`
	Rating          float64          `json:"rating"`
	ReviewCount     int              `json:"review_count"`
	InStock         bool             `json:"in_stock"`
	Orderable       bool             `json:"orderable"`
	CategoryName    string           `json:"category_name"`
	URLFragment     string           `json:"url_fragment"`
	AttributeGroups []AttributeGroup `json:"attribute_groups"`
}

// AttributeGroup is the vendor's nested structure carrying named
// specification key/value pairs for one product.
type AttributeGroup struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FindAttribute searches all attribute groups for a key, case-insensitively.
// Returns the value and whether it was found.
func (r RawCatalogItem) FindAttribute(key string) (string, bool) {
	for _, group := range r.AttributeGroups {
		for _, attr := range group.Attributes {
			if strings.EqualFold(attr.Name, key) {
				return attr.Value, true
			}
		}
	}
	return "", false
}
