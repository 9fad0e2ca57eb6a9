package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/email"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/port"
	"github.com/somnia/storefront-bfa-go/internal/quiz"
	"github.com/somnia/storefront-bfa-go/internal/referral"
)

// comparisonTemplate renders the partner-comparison email body. Kept
// deliberately plain: transactional mail clients strip most styling anyway.
var comparisonTemplate = template.Must(template.New("comparison").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>{{.SenderName}} wants your opinion on a mattress</h2>
  {{if .PersonalNote}}<p style="font-style: italic;">&ldquo;{{.PersonalNote}}&rdquo;</p>{{end}}
  <p>They narrowed it down to these options:</p>
  <ul>
    {{range .Products}}
    <li>
      <strong>{{.Title}}</strong>
      {{if .Price}} &mdash; {{.Price}}{{end}}
    </li>
    {{end}}
  </ul>
  <p>Which one would you pick?</p>
</body>
</html>`))

// ShareService handles the viral-growth surface: partner comparison
// emails, sleep-profile persistence and referral ledger reads.
type ShareService struct {
	sender  port.EmailSender
	store   port.ShareStore
	limiter *email.IPLimiter
	from    string
	shareBaseURL string
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewShareService creates the share service.
func NewShareService(sender port.EmailSender, store port.ShareStore, limiter *email.IPLimiter, from, shareBaseURL string, metrics *observability.Metrics, logger *zap.Logger) *ShareService {
	return &ShareService{
		sender:       sender,
		store:        store,
		limiter:      limiter,
		from:         from,
		shareBaseURL: shareBaseURL,
		metrics:      metrics,
		logger:       logger,
	}
}

// SendComparison emails a product comparison to the recipient and records
// the share. The per-IP rate limit is checked before any side effect: a
// throttled request sends nothing and stores nothing.
func (s *ShareService) SendComparison(ctx context.Context, clientIP string, share *domain.ComparisonShare) (*domain.ComparisonShare, error) {
	ctx, span := tracer.Start(ctx, "Share.SendComparison")
	defer span.End()

	if err := validateComparison(share); err != nil {
		return nil, err
	}
	if !share.IncludePricing {
		for i := range share.Products {
			share.Products[i].Price = ""
		}
	}

	if !s.limiter.Allow(clientIP) {
		s.metrics.IncrEmailSend("throttled")
		return nil, &domain.ErrRateLimited{Resource: "comparison email"}
	}

	var body bytes.Buffer
	if err := comparisonTemplate.Execute(&body, share); err != nil {
		return nil, fmt.Errorf("rendering comparison email: %w", err)
	}

	msg := &domain.EmailMessage{
		From:    s.from,
		To:      []string{share.RecipientEmail},
		Subject: fmt.Sprintf("%s wants your opinion on a mattress", share.SenderName),
		HTML:    body.String(),
	}

	providerID, err := s.sender.Send(ctx, msg)
	if err != nil {
		s.metrics.IncrEmailSend("error")
		s.logger.Error("comparison email send failed",
			zap.String("recipient", share.RecipientEmail),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncrEmailSend("success")
	span.SetAttributes(attribute.String("email.provider_id", providerID))

	share.CreatedAt = time.Now().UTC()
	stored, err := s.store.InsertComparisonShare(ctx, share)
	if err != nil {
		// The email is already out; losing the row is not worth a 5xx.
		s.logger.Warn("comparison share row insert failed",
			zap.Error(err),
		)
		return share, nil
	}
	return stored, nil
}

// SaveSleepProfile persists a completed quiz result for sharing.
func (s *ShareService) SaveSleepProfile(ctx context.Context, profile *domain.SleepProfile) (*domain.SleepProfile, error) {
	ctx, span := tracer.Start(ctx, "Share.SaveSleepProfile")
	defer span.End()

	if _, ok := quiz.Personalities[profile.PersonalityID]; !ok {
		return nil, &domain.ErrValidation{Field: "personality_id", Message: "unknown personality"}
	}
	profile.CreatedAt = time.Now().UTC()
	return s.store.InsertSleepProfile(ctx, profile)
}

// GenerateReferral mints a referral code from the given seed (typically
// the referrer's email) and returns the code with its shareable link.
func (s *ShareService) GenerateReferral(seed string) (code, link string) {
	code = referral.Generate(seed)
	return code, referral.Link(s.shareBaseURL, code)
}

// ReferralStats returns the ledger rows recorded for a referral code,
// newest first. The code must be well-formed; the ledger may be empty.
func (s *ShareService) ReferralStats(ctx context.Context, code string) ([]domain.ReferralEvent, error) {
	ctx, span := tracer.Start(ctx, "Share.ReferralStats")
	defer span.End()

	if !referral.Validate(code) {
		return nil, &domain.ErrValidation{Field: "code", Message: "malformed referral code"}
	}
	events, err := s.store.ListReferralEvents(ctx, code)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.ReferralEvent{}
	}
	return events, nil
}

func validateComparison(share *domain.ComparisonShare) error {
	if _, err := mail.ParseAddress(share.RecipientEmail); err != nil {
		return &domain.ErrValidation{Field: "recipient_email", Message: "invalid email address"}
	}
	if share.SenderName == "" {
		return &domain.ErrValidation{Field: "sender_name", Message: "sender name is required"}
	}
	if len(share.Products) < 2 {
		return &domain.ErrValidation{Field: "products", Message: "a comparison needs at least two products"}
	}
	for _, p := range share.Products {
		if p.Handle == "" || p.Title == "" {
			return &domain.ErrValidation{Field: "products", Message: "every product needs a handle and a title"}
		}
	}
	return nil
}
