package notify

import (
	"fmt"
	"math"
	"strings"
	"time"

	"dealwatch/internal/domain"
)

// ist is the display zone for message footers; the catalog and its audience
// are India-based.
var ist = time.FixedZone("IST", 5*3600+1800)

// FormatDealAlert renders one delivery-ready HTML message for a batch of
// deals. Output is deterministic given the same products and timestamp.
func FormatDealAlert(products []domain.Product, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔥 <b>%d Hot Deal", len(products)))
	if len(products) != 1 {
		b.WriteString("s")
	}
	b.WriteString(" Found!</b>\n")
	b.WriteString(fmt.Sprintf("Avg discount: <b>%.0f%%</b> | Total savings: <b>₹%.0f</b>\n\n",
		averageDiscount(products), totalSavings(products)))

	for i, p := range products {
		b.WriteString(formatProductBlock(i+1, p))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("<i>Updated %s</i>", now.In(ist).Format("02 Jan 2006 15:04 MST")))
	return b.String()
}

func formatProductBlock(rank int, p domain.Product) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%d. <b>%s</b>\n", rank, p.Name))
	b.WriteString(fmt.Sprintf("   <s>₹%.0f</s> <b>₹%.0f</b> (%.0f%% off)\n",
		p.OriginalPrice, p.CurrentPrice, p.DiscountPercentage))
	b.WriteString(fmt.Sprintf("   %s %.1f (%d reviews)\n", ratingStars(p.Rating), p.Rating, p.ReviewCount))

	specs := make([]string, 0, 3)
	if p.Weight != "" && p.Weight != "Unknown" {
		specs = append(specs, p.Weight)
	}
	if p.Flavor != "" && p.Flavor != "Unknown" {
		specs = append(specs, p.Flavor)
	}
	if p.ProteinPerServing != "" && p.ProteinPerServing != "0g" {
		specs = append(specs, p.ProteinPerServing+" protein/serving")
	}
	if len(specs) > 0 {
		b.WriteString("   " + strings.Join(specs, " | ") + "\n")
	}

	b.WriteString(fmt.Sprintf("   <a href=\"%s\">View deal</a>\n", p.URL))
	return b.String()
}

// ratingStars renders a five-slot star bar, rounding to the nearest star.
func ratingStars(rating float64) string {
	filled := int(math.Round(rating))
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

func averageDiscount(products []domain.Product) float64 {
	if len(products) == 0 {
		return 0
	}
	var sum float64
	for _, p := range products {
		sum += p.DiscountPercentage
	}
	return sum / float64(len(products))
}

func totalSavings(products []domain.Product) float64 {
	var sum float64
	for _, p := range products {
		sum += p.SavingsAmount()
	}
	return sum
}
