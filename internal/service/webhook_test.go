package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
)

// stubShareStore records inserts for webhook and share tests.
type stubShareStore struct {
	comparisonShares []*domain.ComparisonShare
	sleepProfiles    []*domain.SleepProfile
	referralEvents   []*domain.ReferralEvent
	listEvents       []domain.ReferralEvent
	insertErr        error
}

func (s *stubShareStore) InsertComparisonShare(ctx context.Context, share *domain.ComparisonShare) (*domain.ComparisonShare, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.comparisonShares = append(s.comparisonShares, share)
	return share, nil
}

func (s *stubShareStore) InsertSleepProfile(ctx context.Context, profile *domain.SleepProfile) (*domain.SleepProfile, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.sleepProfiles = append(s.sleepProfiles, profile)
	return profile, nil
}

func (s *stubShareStore) InsertReferralEvent(ctx context.Context, event *domain.ReferralEvent) (*domain.ReferralEvent, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.referralEvents = append(s.referralEvents, event)
	return event, nil
}

func (s *stubShareStore) ListReferralEvents(ctx context.Context, referralCode string) ([]domain.ReferralEvent, error) {
	return s.listEvents, nil
}

const webhookSecret = "whsec_test"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestWebhookService(store *stubShareStore) *WebhookService {
	return NewWebhookService(store, webhookSecret, observability.NewMetrics(), zap.NewNop())
}

func TestWebhookValidSignatureRecordsReferral(t *testing.T) {
	store := &stubShareStore{}
	svc := newTestWebhookService(store)

	body := []byte(`{
		"id": "order-1001",
		"total_price": "974.25",
		"currency": "USD",
		"note_attributes": [
			{"key": "referral_code", "value": "SLEEP-ALEX-7Q2K"},
			{"key": "sale_active", "value": "true"}
		]
	}`)

	if err := svc.ProcessOrder(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("ProcessOrder: %v", err)
	}
	if len(store.referralEvents) != 1 {
		t.Fatalf("expected 1 referral event, got %d", len(store.referralEvents))
	}
	event := store.referralEvents[0]
	if event.ReferralCode != "SLEEP-ALEX-7Q2K" {
		t.Errorf("referral code = %q", event.ReferralCode)
	}
	if event.OrderID != "order-1001" || event.OrderTotal != "974.25" || event.Currency != "USD" {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestWebhookInvalidSignatureWritesNothing(t *testing.T) {
	store := &stubShareStore{}
	svc := newTestWebhookService(store)

	body := []byte(`{"id":"order-1001","note_attributes":[{"key":"referral_code","value":"SLEEP-ALEX-7Q2K"}]}`)
	tampered := append([]byte(nil), body...)
	tampered[2] ^= 0x01

	cases := map[string]string{
		"missing":    "",
		"not base64": "!!not-base64!!",
		"wrong key":  base64.StdEncoding.EncodeToString([]byte("nonsense")),
		"tampered":   sign(tampered),
	}
	for name, sig := range cases {
		err := svc.ProcessOrder(context.Background(), body, sig)
		var invalid *domain.ErrInvalidSignature
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
	if len(store.referralEvents) != 0 {
		t.Errorf("rejected webhooks must not write, got %d events", len(store.referralEvents))
	}
}

func TestWebhookWithoutReferralCodeIsAcknowledged(t *testing.T) {
	store := &stubShareStore{}
	svc := newTestWebhookService(store)

	body := []byte(`{"id":"order-1002","total_price":"1299.00","currency":"USD","note_attributes":[]}`)
	if err := svc.ProcessOrder(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("ProcessOrder: %v", err)
	}
	if len(store.referralEvents) != 0 {
		t.Errorf("expected no referral events, got %d", len(store.referralEvents))
	}
}

func TestWebhookMalformedReferralCodeIsSkipped(t *testing.T) {
	store := &stubShareStore{}
	svc := newTestWebhookService(store)

	body := []byte(`{"id":"order-1003","note_attributes":[{"key":"referral_code","value":"not-a-code"}]}`)
	if err := svc.ProcessOrder(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("ProcessOrder: %v", err)
	}
	if len(store.referralEvents) != 0 {
		t.Errorf("malformed code should not produce a ledger row, got %d", len(store.referralEvents))
	}
}

func TestWebhookMalformedBodyRejected(t *testing.T) {
	svc := newTestWebhookService(&stubShareStore{})

	body := []byte(`{not json`)
	err := svc.ProcessOrder(context.Background(), body, sign(body))
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
