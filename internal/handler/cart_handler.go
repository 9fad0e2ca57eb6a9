package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/referral"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

// ============================================================
// Carts: line items, referral code, checkout
// ============================================================

func createCartHandler(cartSvc *service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, cartSvc.CreateCart())
	}
}

func getCartHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cart, err := cartSvc.GetCart(chi.URLParam(r, "cartId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

func addItemHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/carts/{cartId}/items")
		defer span.End()

		var req domain.AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("variant.id", req.VariantID))

		cart, err := cartSvc.AddItem(chi.URLParam(r, "cartId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

func updateQuantityHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"quantity\": 2}")
			return
		}

		cart, err := cartSvc.UpdateQuantity(chi.URLParam(r, "cartId"), chi.URLParam(r, "variantId"), req.Quantity)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

func removeItemHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cart, err := cartSvc.RemoveItem(chi.URLParam(r, "cartId"), chi.URLParam(r, "variantId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

// setReferralCodeHandler handles PUT /v1/carts/{cartId}/referral.
// An empty code clears the cart's referral. Non-empty codes must be
// well-formed; prices never change here; discounts resolve at checkout.
func setReferralCodeHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"code\": \"SLEEP-...\"}")
			return
		}
		if req.Code != "" && !referral.Validate(req.Code) {
			writeError(w, http.StatusUnprocessableEntity, "malformed referral code")
			return
		}

		cart, err := cartSvc.SetReferralCode(chi.URLParam(r, "cartId"), req.Code)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}

func createCheckoutHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/carts/{cartId}/checkout")
		defer span.End()

		cartID := chi.URLParam(r, "cartId")
		span.SetAttributes(attribute.String("cart.id", cartID))

		cart, err := cartSvc.CreateCheckout(ctx, cartID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cart)
	}
}
