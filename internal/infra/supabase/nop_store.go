package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/somnia/storefront-bfa-go/internal/domain"
)

// NopStore is the share store used when Supabase is not configured.
// Writes succeed without persisting anything so the surrounding flows
// (emails, quiz results, webhooks) keep working in local development.
type NopStore struct{}

// NewNopStore returns a no-op share store.
func NewNopStore() *NopStore {
	return &NopStore{}
}

func (NopStore) InsertComparisonShare(ctx context.Context, share *domain.ComparisonShare) (*domain.ComparisonShare, error) {
	share.ID = uuid.NewString()
	share.CreatedAt = time.Now().UTC()
	return share, nil
}

func (NopStore) InsertSleepProfile(ctx context.Context, profile *domain.SleepProfile) (*domain.SleepProfile, error) {
	profile.ID = uuid.NewString()
	profile.CreatedAt = time.Now().UTC()
	return profile, nil
}

func (NopStore) InsertReferralEvent(ctx context.Context, event *domain.ReferralEvent) (*domain.ReferralEvent, error) {
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	return event, nil
}

func (NopStore) ListReferralEvents(ctx context.Context, referralCode string) ([]domain.ReferralEvent, error) {
	return []domain.ReferralEvent{}, nil
}
