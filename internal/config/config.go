package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	CommerceAPIURL   string
	CommerceAPIToken string
	ChatRelayURL     string
	ChatRelayAPIKey  string
	EmailAPIURL      string
	EmailAPIKey      string
	EmailFrom        string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Chat streaming
	ChatFlushInterval time.Duration
	ChatIdleTimeout   time.Duration

	// Checkout
	CheckoutTimeout time.Duration

	// Email rate limiting (sends per hour, per caller IP)
	EmailSendsPerHour int

	// Cache / sessions
	CacheTTL   time.Duration
	SessionTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase (row store: comparison shares, sleep profiles, referral ledger)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	UseSupabase        bool

	// Webhooks
	WebhookSecret string

	// Sale
	SaleActive          bool
	SaleDiscountPercent float64
	SaleEndDate         string
	SaleBannerText      string

	// Referral share links
	ShareBaseURL string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CommerceAPIURL:   getEnv("COMMERCE_API_URL", "http://localhost:8081"),
		CommerceAPIToken: getEnv("COMMERCE_API_TOKEN", ""),
		ChatRelayURL:     getEnv("CHAT_RELAY_URL", "http://localhost:8090"),
		ChatRelayAPIKey:  getEnv("CHAT_RELAY_API_KEY", ""),
		EmailAPIURL:      getEnv("EMAIL_API_URL", "https://api.resend.com"),
		EmailAPIKey:      getEnv("EMAIL_API_KEY", ""),
		EmailFrom:        getEnv("EMAIL_FROM", "Somnia Sleep <hello@somniasleep.com>"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		ChatFlushInterval: getEnvDuration("CHAT_FLUSH_INTERVAL", 150*time.Millisecond),
		ChatIdleTimeout:   getEnvDuration("CHAT_IDLE_TIMEOUT", 60*time.Second),

		CheckoutTimeout: getEnvDuration("CHECKOUT_TIMEOUT", 15*time.Second),

		EmailSendsPerHour: getEnvInt("EMAIL_SENDS_PER_HOUR", 5),

		CacheTTL:   getEnvDuration("CACHE_TTL", 5*time.Minute),
		SessionTTL: getEnvDuration("SESSION_TTL", 2*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		UseSupabase:        getEnv("USE_SUPABASE", "true") == "true",

		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		SaleActive:          getEnv("SALE_ACTIVE", "false") == "true",
		SaleDiscountPercent: getEnvFloat("SALE_DISCOUNT_PERCENT", 25),
		SaleEndDate:         getEnv("SALE_END_DATE", ""),
		SaleBannerText:      getEnv("SALE_BANNER_TEXT", "Limited time: sitewide sleep sale"),

		ShareBaseURL: getEnv("SHARE_BASE_URL", "https://somniasleep.com"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
