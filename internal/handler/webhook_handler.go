package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

// signatureHeader carries the base64 HMAC-SHA256 of the raw body.
const signatureHeader = "X-Storefront-Hmac-Sha256"

// maxWebhookBody bounds order payloads; anything bigger is not ours.
const maxWebhookBody = 1 << 20

// orderWebhookHandler handles POST /v1/webhooks/orders. The body must
// be read raw; any re-serialization would break the HMAC check.
func orderWebhookHandler(webhookSvc *service.WebhookService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/webhooks/orders")
		defer span.End()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}

		if err := webhookSvc.ProcessOrder(ctx, body, r.Header.Get(signatureHeader)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "webhook processed"})
	}
}
