package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/port"
	"github.com/somnia/storefront-bfa-go/internal/referral"
)

// WebhookService verifies and processes order webhooks from the commerce
// backend. Signature verification happens before the payload is even
// parsed; an unsigned or mis-signed request causes no writes.
type WebhookService struct {
	store   port.ShareStore
	secret  []byte
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewWebhookService creates the webhook service.
func NewWebhookService(store port.ShareStore, secret string, metrics *observability.Metrics, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		store:   store,
		secret:  []byte(secret),
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessOrder handles one order webhook delivery. The signature is the
// base64-encoded HMAC-SHA256 of the raw request body. Orders without a
// referral code attribute verify fine and are simply acknowledged.
func (s *WebhookService) ProcessOrder(ctx context.Context, body []byte, signature string) error {
	ctx, span := tracer.Start(ctx, "Webhook.ProcessOrder")
	defer span.End()

	if err := s.verify(body, signature); err != nil {
		s.metrics.IncrWebhook("rejected")
		s.logger.Warn("order webhook signature rejected",
			zap.Error(err),
		)
		return err
	}

	var order domain.OrderWebhook
	if err := json.Unmarshal(body, &order); err != nil {
		s.metrics.IncrWebhook("malformed")
		return &domain.ErrValidation{Field: "body", Message: "malformed order payload"}
	}

	code := referralCodeAttribute(order.Attributes)
	if code == "" {
		s.metrics.IncrWebhook("accepted")
		return nil
	}
	if !referral.Validate(code) {
		// Attribute present but garbled; acknowledge rather than make the
		// commerce backend retry a delivery that will never improve.
		s.metrics.IncrWebhook("accepted")
		s.logger.Warn("order carried malformed referral code",
			zap.String("order_id", order.ID),
			zap.String("code", code),
		)
		return nil
	}

	event := &domain.ReferralEvent{
		ReferralCode: code,
		OrderID:      order.ID,
		OrderTotal:   order.TotalPrice,
		Currency:     order.Currency,
	}
	if _, err := s.store.InsertReferralEvent(ctx, event); err != nil {
		s.metrics.IncrWebhook("error")
		return fmt.Errorf("recording referral event: %w", err)
	}

	s.metrics.IncrWebhook("accepted")
	s.logger.Info("referral conversion recorded",
		zap.String("order_id", order.ID),
		zap.String("referral_code", code),
	)
	return nil
}

// verify checks the HMAC-SHA256 signature over the raw body.
func (s *WebhookService) verify(body []byte, signature string) error {
	if signature == "" {
		return &domain.ErrInvalidSignature{Reason: "missing signature header"}
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return &domain.ErrInvalidSignature{Reason: "signature is not valid base64"}
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return &domain.ErrInvalidSignature{Reason: "signature mismatch"}
	}
	return nil
}

func referralCodeAttribute(attrs []domain.CheckoutAttribute) string {
	for _, a := range attrs {
		if a.Key == "referral_code" {
			return a.Value
		}
	}
	return ""
}
