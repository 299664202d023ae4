package alert

import "dealwatch/internal/domain"

// DealSummary is the bounded per-product view reported back to callers.
type DealSummary struct {
	Name               string  `json:"name"`
	Brand              string  `json:"brand"`
	OriginalPrice      float64 `json:"originalPrice"`
	CurrentPrice       float64 `json:"currentPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
	Savings            float64 `json:"savings"`
	Rating             float64 `json:"rating"`
	URL                string  `json:"url"`
}

// ExecutionResult is produced once per orchestration run and returned to the
// caller; it is never stored.
type ExecutionResult struct {
	ExecutionID          string        `json:"executionId"`
	Category             string        `json:"category,omitempty"`
	TotalProductsFetched int           `json:"totalProductsFetched"`
	QualifyingDeals      int           `json:"qualifyingDeals"`
	TelegramSent         bool          `json:"telegramSent"`
	Deals                []DealSummary `json:"deals"`
	ExecutionTimeMs      int64         `json:"executionTimeMs"`
	Errors               []string      `json:"errors,omitempty"`
}

func summarize(products []domain.Product, limit int) []DealSummary {
	if len(products) > limit {
		products = products[:limit]
	}
	summaries := make([]DealSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, DealSummary{
			Name:               p.Name,
			Brand:              p.Brand,
			OriginalPrice:      p.OriginalPrice,
			CurrentPrice:       p.CurrentPrice,
			DiscountPercentage: p.DiscountPercentage,
			Savings:            p.SavingsAmount(),
			Rating:             p.Rating,
			URL:                p.URL,
		})
	}
	return summaries
}
