package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	chatdomain "github.com/somnia/storefront-bfa-go/internal/chat/domain"
	chatservice "github.com/somnia/storefront-bfa-go/internal/chat/service"
	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/cache"
	"github.com/somnia/storefront-bfa-go/internal/infra/email"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/pricing"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

// routerCommerce is a canned commerce gateway for routing tests.
type routerCommerce struct{}

func (routerCommerce) ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error) {
	return &domain.ProductPage{Products: []domain.Product{{Handle: "the-cloud-nine", Title: "The Cloud Nine"}}, Page: page, PageSize: pageSize}, nil
}

func (routerCommerce) GetProduct(ctx context.Context, handle string) (*domain.Product, error) {
	if handle != "the-cloud-nine" {
		return nil, &domain.ErrNotFound{Resource: "product", ID: handle}
	}
	return &domain.Product{
		Handle: handle,
		Title:  "The Cloud Nine",
		Variants: []domain.Variant{
			{ID: "v-1", Title: "Queen", Price: domain.Money{Amount: "1299.00", CurrencyCode: "USD"}},
		},
	}, nil
}

func (routerCommerce) ListCollectionProducts(ctx context.Context, collection string, page, pageSize int) (*domain.ProductPage, error) {
	return &domain.ProductPage{Page: page, PageSize: pageSize}, nil
}

func (routerCommerce) CreateCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.Checkout, error) {
	return &domain.Checkout{ID: "chk-1", WebURL: "https://checkout.example.com/chk-1"}, nil
}

type routerSender struct{}

func (routerSender) Send(ctx context.Context, msg *domain.EmailMessage) (string, error) {
	return "email-1", nil
}

type routerStore struct{}

func (routerStore) InsertComparisonShare(ctx context.Context, s *domain.ComparisonShare) (*domain.ComparisonShare, error) {
	return s, nil
}
func (routerStore) InsertSleepProfile(ctx context.Context, p *domain.SleepProfile) (*domain.SleepProfile, error) {
	return p, nil
}
func (routerStore) InsertReferralEvent(ctx context.Context, e *domain.ReferralEvent) (*domain.ReferralEvent, error) {
	return e, nil
}
func (routerStore) ListReferralEvents(ctx context.Context, code string) ([]domain.ReferralEvent, error) {
	return nil, nil
}

type routerRelay struct{}

func (routerRelay) Stream(ctx context.Context, messages []chatdomain.ConversationMessage, onChunk func(string) error) error {
	return onChunk("Sure, happy to help.")
}

func newTestRouter(t *testing.T, sale pricing.Sale) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	catalogSvc := service.NewCatalogService(routerCommerce{}, cache.New[any](time.Minute), metrics, logger)
	cartSvc := service.NewCartService(time.Minute, routerCommerce{}, sale, time.Second, metrics, logger)
	shareSvc := service.NewShareService(routerSender{}, routerStore{}, email.NewIPLimiter(5), "hello@somnia.example.com", "https://somnia.example.com", metrics, logger)
	webhookSvc := service.NewWebhookService(routerStore{}, "whsec_router", metrics, logger)
	orchestrator := chatservice.NewOrchestrator(routerRelay{}, 10*time.Millisecond, time.Minute, 4, metrics, logger)

	return NewRouter(catalogSvc, cartSvc, shareSvc, webhookSvc, orchestrator, sale, metrics, logger)
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t, pricing.Sale{Active: true, DiscountPercent: 25})

	cases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"ping", http.MethodGet, "/ping", "", http.StatusOK},
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readyz", http.MethodGet, "/readyz", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"list products", http.MethodGet, "/v1/products", "", http.StatusOK},
		{"get product", http.MethodGet, "/v1/products/the-cloud-nine", "", http.StatusOK},
		{"unknown product", http.MethodGet, "/v1/products/nope", "", http.StatusNotFound},
		{"compare too few", http.MethodGet, "/v1/compare?handles=one", "", http.StatusUnprocessableEntity},
		{"sale", http.MethodGet, "/v1/sale", "", http.StatusOK},
		{"sale preview", http.MethodPost, "/v1/sale/preview", `{"original":100}`, http.StatusOK},
		{"personalities", http.MethodGet, "/v1/quiz/personalities", "", http.StatusOK},
		{"compatibility", http.MethodGet, "/v1/quiz/compatibility?a=the-starfish&b=the-koala", "", http.StatusOK},
		{"referral validate", http.MethodGet, "/v1/referral/validate?code=SLEEP-ALEX-7Q2K", "", http.StatusOK},
		{"referral generate", http.MethodPost, "/v1/referral/generate", `{"seed":"alex@example.com"}`, http.StatusOK},
		{"chat metrics", http.MethodGet, "/v1/metrics/chat", "", http.StatusOK},
		{"webhook unsigned", http.MethodPost, "/v1/webhooks/orders", `{"id":"order-1"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(tc.body)))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tc.method, tc.path, nil)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Errorf("%s %s = %d, want %d. Body: %s", tc.method, tc.path, rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRouterCartFlow(t *testing.T) {
	router := newTestRouter(t, pricing.Sale{})

	// Create a cart.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/carts/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cart = %d. Body: %s", rec.Code, rec.Body.String())
	}
	var cart domain.Cart
	if err := json.NewDecoder(rec.Body).Decode(&cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}

	// Checkout on the empty cart is refused.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/carts/"+cart.ID+"/checkout", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty checkout = %d, want 422", rec.Code)
	}

	// Add an item, then check out.
	item, _ := json.Marshal(domain.AddItemRequest{
		ProductHandle: "the-cloud-nine",
		ProductTitle:  "The Cloud Nine",
		VariantID:     "v-1",
		VariantTitle:  "Queen",
		Price:         domain.Money{Amount: "1299.00", CurrencyCode: "USD"},
		Quantity:      1,
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/carts/"+cart.ID+"/items", bytes.NewReader(item)))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item = %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/carts/"+cart.ID+"/checkout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout = %d. Body: %s", rec.Code, rec.Body.String())
	}
	var after domain.Cart
	if err := json.NewDecoder(rec.Body).Decode(&after); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if after.CheckoutURL == "" {
		t.Error("expected checkout URL after successful checkout")
	}
	if len(after.Items) != 0 {
		t.Errorf("expected cleared cart, got %d items", len(after.Items))
	}
}

func TestRouterChatSessionFlow(t *testing.T) {
	router := newTestRouter(t, pricing.Sale{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/sessions/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session = %d. Body: %s", rec.Code, rec.Body.String())
	}
	var session chatdomain.Session
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	body := bytes.NewReader([]byte(`{"text":"hi there"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/sessions/"+session.ID+"/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("message = %d. Body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"type":"done"`)) {
		t.Errorf("stream missing done event: %s", rec.Body.String())
	}
}
