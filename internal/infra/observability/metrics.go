package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/somnia/storefront-bfa-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the storefront BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	chatStreams       *prometheus.CounterVec
	chatChunks        prometheus.Counter
	directivesParsed  *prometheus.CounterVec
	directivesDropped *prometheus.CounterVec
	checkouts         *prometheus.CounterVec
	emailSends        *prometheus.CounterVec
	webhookRequests   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		chatStreams: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_chat_streams_total",
				Help: "Total chat streams by terminal status.",
			},
			[]string{"status"},
		),
		chatChunks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "storefront_chat_chunks_total",
				Help: "Total stream chunks received from the LLM relay.",
			},
		),
		directivesParsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_directives_parsed_total",
				Help: "Total assistant directives parsed, by kind.",
			},
			[]string{"kind"},
		),
		directivesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_directives_dropped_total",
				Help: "Total malformed assistant directives dropped, by kind.",
			},
			[]string{"kind"},
		),
		checkouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkouts_total",
				Help: "Total checkout creations by outcome.",
			},
			[]string{"status"},
		),
		emailSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_email_sends_total",
				Help: "Total comparison email sends by outcome.",
			},
			[]string{"status"},
		),
		webhookRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_webhook_requests_total",
				Help: "Total inbound webhook requests by verification result.",
			},
			[]string{"result"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrChatStream increments the stream counter with a terminal status
// ("completed", "error", "timeout").
func (m *Metrics) IncrChatStream(status string) {
	m.chatStreams.WithLabelValues(status).Inc()
}

// IncrChatChunk counts one relay chunk.
func (m *Metrics) IncrChatChunk() {
	m.chatChunks.Inc()
}

// IncrDirectiveParsed counts one successfully parsed directive.
func (m *Metrics) IncrDirectiveParsed(kind string) {
	m.directivesParsed.WithLabelValues(kind).Inc()
}

// IncrDirectiveDropped counts one malformed, dropped directive.
func (m *Metrics) IncrDirectiveDropped(kind string) {
	m.directivesDropped.WithLabelValues(kind).Inc()
}

// IncrCheckout increments the checkout counter ("success" or "error").
func (m *Metrics) IncrCheckout(status string) {
	m.checkouts.WithLabelValues(status).Inc()
}

// IncrEmailSend increments the email counter ("sent", "error", "rate_limited").
func (m *Metrics) IncrEmailSend(status string) {
	m.emailSends.WithLabelValues(status).Inc()
}

// IncrWebhook increments the webhook counter ("accepted" or "rejected").
func (m *Metrics) IncrWebhook(result string) {
	m.webhookRequests.WithLabelValues(result).Inc()
}

// GetChatSnapshot returns a snapshot of chat-related metrics suitable for
// the GET /v1/metrics/chat endpoint.
func (m *Metrics) GetChatSnapshot() *domain.ChatMetrics {
	completed := getCounterValue(m.chatStreams, "completed")
	errored := getCounterValue(m.chatStreams, "error") +
		getCounterValue(m.chatStreams, "timeout")
	total := completed + errored

	chunks := getPlainCounterValue(m.chatChunks)

	parsed := float64(0)
	for _, kind := range []string{"product_recommendation", "comparison", "firmness_visual", "social_proof", "quick_replies"} {
		parsed += getCounterValue(m.directivesParsed, kind)
	}
	dropped := float64(0)
	for _, kind := range []string{"product_recommendation", "comparison", "firmness_visual", "social_proof", "quick_replies"} {
		dropped += getCounterValue(m.directivesDropped, kind)
	}

	cacheHits := getCounterValue(m.cacheHits, "catalog")
	cacheMisses := getCounterValue(m.cacheMisses, "catalog")

	errorRate := float64(0)
	avgChunks := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		errorRate = errored / total
		avgChunks = chunks / total
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.ChatMetrics{
		TotalStreams:      int64(total),
		ErrorRate:         errorRate,
		AvgChunksPerTurn:  avgChunks,
		DirectivesParsed:  int64(parsed),
		DirectivesDropped: int64(dropped),
		CacheHitRate:      cacheHitRate,
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getPlainCounterValue extracts the current value from an unlabelled counter.
func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
