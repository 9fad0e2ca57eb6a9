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
// Viral growth: comparison emails, referral codes
// ============================================================

// sendComparisonHandler handles POST /v1/compare/email.
func sendComparisonHandler(shareSvc *service.ShareService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/compare/email")
		defer span.End()

		var share domain.ComparisonShare
		if err := json.NewDecoder(r.Body).Decode(&share); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Int("compare.products", len(share.Products)))

		stored, err := shareSvc.SendComparison(ctx, clientIP(r), &share)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{
			Message: "comparison sent",
			ID:      stored.ID,
		})
	}
}

// generateReferralHandler handles POST /v1/referral/generate.
//
// Request:  {"seed": "alex@example.com"}
// Response: {"code": "SLEEP-ALEX-7Q2K", "link": "https://.../?ref=SLEEP-ALEX-7Q2K"}
func generateReferralHandler(shareSvc *service.ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Seed string `json:"seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"seed\": \"...\"}")
			return
		}

		code, link := shareSvc.GenerateReferral(req.Seed)
		writeJSON(w, http.StatusOK, map[string]string{
			"code": code,
			"link": link,
		})
	}
}

// validateReferralHandler handles GET /v1/referral/validate?code=SLEEP-....
// Pure format validation; it does not consult the ledger.
func validateReferralHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		writeJSON(w, http.StatusOK, map[string]any{
			"code":  code,
			"valid": referral.Validate(code),
		})
	}
}

// referralStatsHandler handles GET /v1/referral/{code}/stats.
func referralStatsHandler(shareSvc *service.ShareService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/referral/{code}/stats")
		defer span.End()

		code := chi.URLParam(r, "code")
		events, err := shareSvc.ReferralStats(ctx, code)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"code":        code,
			"conversions": len(events),
			"events":      events,
		})
	}
}
