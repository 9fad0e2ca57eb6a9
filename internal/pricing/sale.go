// Package pricing computes sitewide sale prices. The sale configuration is
// injected explicitly; there is no runtime API to change it and no hidden
// singleton. Prices shown by the BFA are advisory; the commerce backend
// computes the authoritative price at checkout.
package pricing

import (
	"fmt"
	"math"
	"strconv"
)

// Sale is the process-wide sale configuration, read-only for the life of
// the process. Changing it requires a redeploy.
type Sale struct {
	Active          bool    `json:"active"`
	DiscountPercent float64 `json:"discountPercent"`
	EndDate         string  `json:"endDate,omitempty"`
	BannerText      string  `json:"bannerText,omitempty"`
}

// SalePrice returns the discounted price as a string. When the sale is
// active the result is rounded to 2 decimals; when inactive the original
// price is returned exactly, with no rounding drift introduced.
func SalePrice(sale Sale, original float64) (string, error) {
	if err := validateAmount(original); err != nil {
		return "", err
	}
	if !sale.Active {
		return strconv.FormatFloat(original, 'f', -1, 64), nil
	}
	discounted := original * (1 - sale.DiscountPercent/100)
	return fmt.Sprintf("%.2f", discounted), nil
}

// DiscountAmount returns the absolute discount as a string, "0" when the
// sale is inactive.
func DiscountAmount(sale Sale, original float64) (string, error) {
	if err := validateAmount(original); err != nil {
		return "", err
	}
	if !sale.Active {
		return "0", nil
	}
	discounted := original * (1 - sale.DiscountPercent/100)
	// Round both sides the same way so price + discount == original.
	rounded := math.Round(discounted*100) / 100
	return fmt.Sprintf("%.2f", original-rounded), nil
}

// validateAmount rejects non-finite or negative input. Callers are
// expected to pass real catalog prices; anything else is a contract
// violation and fails fast rather than being coerced.
func validateAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("pricing: non-numeric amount")
	}
	if v < 0 {
		return fmt.Errorf("pricing: negative amount %v", v)
	}
	return nil
}
