package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	chatinfra "github.com/somnia/storefront-bfa-go/internal/chat/infra"
	chatservice "github.com/somnia/storefront-bfa-go/internal/chat/service"
	"github.com/somnia/storefront-bfa-go/internal/config"
	"github.com/somnia/storefront-bfa-go/internal/handler"
	"github.com/somnia/storefront-bfa-go/internal/infra/cache"
	"github.com/somnia/storefront-bfa-go/internal/infra/commerce"
	"github.com/somnia/storefront-bfa-go/internal/infra/email"
	"github.com/somnia/storefront-bfa-go/internal/infra/observability"
	"github.com/somnia/storefront-bfa-go/internal/infra/resilience"
	"github.com/somnia/storefront-bfa-go/internal/infra/supabase"
	"github.com/somnia/storefront-bfa-go/internal/port"
	"github.com/somnia/storefront-bfa-go/internal/pricing"
	"github.com/somnia/storefront-bfa-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Bool("sale_active", cfg.SaleActive),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("chat_flush_interval", cfg.ChatFlushInterval),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "storefront-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	catalogCache := cache.New[any](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")
	relayCb := resilience.NewCircuitBreaker("chat-relay")

	// --- Sale ---
	sale := pricing.Sale{
		Active:          cfg.SaleActive,
		DiscountPercent: cfg.SaleDiscountPercent,
		EndDate:         cfg.SaleEndDate,
		BannerText:      cfg.SaleBannerText,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	// Relay streams outlive any sane request timeout; the client's idle
	// watchdog bounds it instead.
	streamClient := &http.Client{}

	commerceClient := commerce.NewClient(httpClient, cfg.CommerceAPIURL, cfg.CommerceAPIToken, cb, resilienceCfg)
	relayClient := chatinfra.NewRelayClient(streamClient, cfg.ChatRelayURL, cfg.ChatRelayAPIKey, relayCb, cfg.ChatIdleTimeout)
	emailClient := email.NewClient(httpClient, cfg.EmailAPIURL, cfg.EmailAPIKey, cb, resilienceCfg)

	var shareStore port.ShareStore
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as share store",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		shareStore = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Warn("share store: Supabase not configured, shares and referrals are not persisted")
		shareStore = supabase.NewNopStore()
	}

	// --- Services ---
	catalogSvc := service.NewCatalogService(commerceClient, catalogCache, metrics, logger)
	cartSvc := service.NewCartService(cfg.SessionTTL, commerceClient, sale, cfg.CheckoutTimeout, metrics, logger)
	shareSvc := service.NewShareService(
		emailClient,
		shareStore,
		email.NewIPLimiter(cfg.EmailSendsPerHour),
		cfg.EmailFrom,
		cfg.ShareBaseURL,
		metrics,
		logger,
	)
	webhookSvc := service.NewWebhookService(shareStore, cfg.WebhookSecret, metrics, logger)
	orchestrator := chatservice.NewOrchestrator(
		relayClient,
		cfg.ChatFlushInterval,
		cfg.SessionTTL,
		cfg.MaxConcurrency,
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(catalogSvc, cartSvc, shareSvc, webhookSvc, orchestrator, sale, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: chat responses are long-lived SSE streams.
		IdleTimeout: 60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
