package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/pricing"
)

// ============================================================
// Sale: banner config and price preview
// ============================================================

func getSaleHandler(sale pricing.Sale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sale)
	}
}

// salePreviewHandler handles POST /v1/sale/preview.
//
// Request:  {"original": 1299.0}
// Response: {"price": "974.25", "discount": "324.75"}
//
// When no sale is active the original price comes back exactly as given
// and the discount is "0".
func salePreviewHandler(sale pricing.Sale, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Original float64 `json:"original"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"original\": 1299.0}")
			return
		}

		price, err := pricing.SalePrice(sale, req.Original)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		discount, err := pricing.DiscountAmount(sale, req.Original)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"price":    price,
			"discount": discount,
		})
	}
}
