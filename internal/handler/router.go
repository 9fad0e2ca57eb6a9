package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	chathandler "github.com/somnia/storefront-bfa-go/internal/chat/handler"
	chatservice "github.com/somnia/storefront-bfa-go/internal/chat/service"
	"github.com/somnia/storefront-bfa-go/internal/domain"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/pricing"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract the storefront SPA consumes.
func NewRouter(
	catalogSvc *service.CatalogService,
	cartSvc *service.CartService,
	shareSvc *service.ShareService,
	webhookSvc *service.WebhookService,
	orchestrator *chatservice.Orchestrator,
	sale pricing.Sale,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(catalogSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Catalog
		r.Get("/products", listProductsHandler(catalogSvc, logger))
		r.Get("/products/{handle}", getProductHandler(catalogSvc, sale, logger))
		r.Get("/collections/{collection}/products", listCollectionProductsHandler(catalogSvc, logger))
		r.Get("/compare", compareProductsHandler(catalogSvc, logger))

		// Sale
		r.Get("/sale", getSaleHandler(sale))
		r.Post("/sale/preview", salePreviewHandler(sale, logger))

		// Carts
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", createCartHandler(cartSvc))
			r.Get("/{cartId}", getCartHandler(cartSvc, logger))
			r.Post("/{cartId}/items", addItemHandler(cartSvc, logger))
			r.Put("/{cartId}/items/{variantId}", updateQuantityHandler(cartSvc, logger))
			r.Delete("/{cartId}/items/{variantId}", removeItemHandler(cartSvc, logger))
			r.Put("/{cartId}/referral", setReferralCodeHandler(cartSvc, logger))
			r.Post("/{cartId}/checkout", createCheckoutHandler(cartSvc, logger))
		})

		// Chat
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", chathandler.CreateSessionHandler(orchestrator, logger))
			r.Get("/{sessionId}", chathandler.GetSessionHandler(orchestrator, logger))
			r.Post("/{sessionId}/messages", chathandler.MessageHandler(orchestrator, logger))
		})

		// Sleep-style quiz
		r.Get("/quiz/personalities", listPersonalitiesHandler())
		r.Post("/quiz/classify", classifyHandler(shareSvc, logger))
		r.Get("/quiz/compatibility", compatibilityHandler(logger))

		// Viral growth
		r.Post("/compare/email", sendComparisonHandler(shareSvc, logger))
		r.Post("/referral/generate", generateReferralHandler(shareSvc))
		r.Get("/referral/validate", validateReferralHandler())
		r.Get("/referral/{code}/stats", referralStatsHandler(shareSvc, logger))

		// Webhooks
		r.Post("/webhooks/orders", orderWebhookHandler(webhookSvc, logger))

		// Metrics
		r.Get("/metrics/chat", chatMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "storefront-bfa", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if catalogSvc != nil {
			start := time.Now()
			_, err := catalogSvc.ListProducts(ctx, 1, 1)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "commerce", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func chatMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetChatSnapshot())
	}
}
