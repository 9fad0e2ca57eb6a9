package handler

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/quiz"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

// ============================================================
// Sleep-style quiz
// ============================================================

func listPersonalitiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, quiz.Personalities)
	}
}

// classifyHandler handles POST /v1/quiz/classify.
//
// Request:
//
//	{"answers": {"temperature": "cold", ...}, "save": true}
//
// Classification is deterministic: the same answers always yield the
// same personality. With "save" set the resulting profile is persisted
// and its id returned, so the result page gets a shareable link.
func classifyHandler(shareSvc *service.ShareService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/quiz/classify")
		defer span.End()

		var req struct {
			Answers map[string]string `json:"answers"`
			Save    bool              `json:"save"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		personalityID, err := quiz.Classify(req.Answers)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("quiz.personality_id", personalityID))

		resp := map[string]any{
			"personalityId": personalityID,
			"personality":   quiz.Personalities[personalityID],
		}

		if req.Save {
			profile, err := shareSvc.SaveSleepProfile(ctx, &domain.SleepProfile{
				PersonalityID: personalityID,
				Answers:       req.Answers,
			})
			if err != nil {
				// The classification stands even when persistence is down.
				logger.Warn("sleep profile save failed", zap.Error(err))
			} else {
				resp["profileId"] = profile.ID
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// compatibilityHandler handles GET /v1/quiz/compatibility?a={id}&b={id}.
// Scores are intentionally jittered; two calls with the same pair may
// differ by a few points.
func compatibilityHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		score, err := quiz.Compatibility(r.URL.Query().Get("a"), r.URL.Query().Get("b"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"score": score})
	}
}
