package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/resilience"
)

// ============================================================
// ShareStore implementation: viral-growth rows via PostgREST
// ============================================================

// InsertComparisonShare records one partner-comparison email send.
func (c *Client) InsertComparisonShare(ctx context.Context, share *domain.ComparisonShare) (*domain.ComparisonShare, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertComparisonShare")
	defer span.End()

	products, err := json.Marshal(share.Products)
	if err != nil {
		return nil, fmt.Errorf("marshal products: %w", err)
	}

	row := map[string]any{
		"id":              uuid.NewString(),
		"recipient_email": share.RecipientEmail,
		"sender_name":     share.SenderName,
		"personal_note":   share.PersonalNote,
		"products":        json.RawMessage(products),
		"include_pricing": share.IncludePricing,
	}

	body, err := c.insert(ctx, "comparison_shares", row)
	if err != nil {
		return nil, err
	}
	return firstRowOf[domain.ComparisonShare](body, "comparison_shares")
}

// InsertSleepProfile records one completed quiz result.
func (c *Client) InsertSleepProfile(ctx context.Context, profile *domain.SleepProfile) (*domain.SleepProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertSleepProfile")
	defer span.End()

	answers, err := json.Marshal(profile.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	row := map[string]any{
		"id":             uuid.NewString(),
		"personality_id": profile.PersonalityID,
		"answers":        json.RawMessage(answers),
	}

	body, err := c.insert(ctx, "sleep_profiles", row)
	if err != nil {
		return nil, err
	}
	return firstRowOf[domain.SleepProfile](body, "sleep_profiles")
}

// InsertReferralEvent appends one row to the referral ledger.
func (c *Client) InsertReferralEvent(ctx context.Context, event *domain.ReferralEvent) (*domain.ReferralEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertReferralEvent")
	defer span.End()

	row := map[string]any{
		"id":            uuid.NewString(),
		"referral_code": event.ReferralCode,
		"order_id":      event.OrderID,
		"order_total":   event.OrderTotal,
		"currency":      event.Currency,
	}

	body, err := c.insert(ctx, "referral_ledger", row)
	if err != nil {
		return nil, err
	}
	return firstRowOf[domain.ReferralEvent](body, "referral_ledger")
}

// ListReferralEvents returns the ledger rows for one referral code.
func (c *Client) ListReferralEvents(ctx context.Context, referralCode string) ([]domain.ReferralEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReferralEvents")
	defer span.End()

	path := fmt.Sprintf("referral_ledger?referral_code=eq.%s&order=created_at.desc", url.QueryEscape(referralCode))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	if body == nil {
		return []domain.ReferralEvent{}, nil
	}

	var rows []domain.ReferralEvent
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode referral_ledger: %w", err)
	}
	return rows, nil
}

// insert wraps doPost with the shared circuit breaker + retry.
func (c *Client) insert(ctx context.Context, table string, row map[string]any) ([]byte, error) {
	var body []byte

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var err error
			body, err = c.doPost(ctx, table, row)
			return err
		})
		return nil, innerErr
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return body, nil
}

// firstRowOf maps the representation body to a typed row.
func firstRowOf[T any](body []byte, table string) (*T, error) {
	row, err := firstRow[T](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}
	return row, nil
}
