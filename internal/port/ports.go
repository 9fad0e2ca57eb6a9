// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/somnia/storefront-bfa-go/internal/domain"
)

// CommerceGateway exposes the commerce backend: paginated catalog reads
// plus checkout creation. Implemented by the infra/commerce client.
type CommerceGateway interface {
	// Catalog
	ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, handle string) (*domain.Product, error)
	ListCollectionProducts(ctx context.Context, collection string, page, pageSize int) (*domain.ProductPage, error)

	// Checkout
	CreateCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error)
}

// EmailSender delivers one transactional email and returns the provider id.
type EmailSender interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (string, error)
}

// ShareStore persists the viral-growth rows: comparison shares, sleep
// profiles and the referral ledger. Implemented by the Supabase adapter
// (or any other persistence layer). Single-row semantics only.
type ShareStore interface {
	InsertComparisonShare(ctx context.Context, share *domain.ComparisonShare) (*domain.ComparisonShare, error)
	InsertSleepProfile(ctx context.Context, profile *domain.SleepProfile) (*domain.SleepProfile, error)
	InsertReferralEvent(ctx context.Context, event *domain.ReferralEvent) (*domain.ReferralEvent, error)
	ListReferralEvents(ctx context.Context, referralCode string) ([]domain.ReferralEvent, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
