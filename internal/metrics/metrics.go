package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retropress_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~400s
		},
		[]string{"stage", "status"}, // stage: "text"/"images"/"document"
	)

	providerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retropress_provider_calls_total",
			Help: "Total upstream model calls",
		},
		[]string{"kind", "status"}, // kind: "text"/"image"
	)

	rateLimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retropress_rate_limiter_wait_duration_seconds",
			Help:    "Rate limiter wait duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"model"},
	)

	imageRetryRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retropress_image_retry_rounds",
			Help:    "Retry rounds needed to fill an image batch",
			Buckets: prometheus.LinearBuckets(0, 1, 6),
		},
	)

	missingImageSlots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retropress_missing_image_slots",
			Help: "Image slots still absent after the latest batch",
		},
	)

	payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retropress_payments_total",
			Help: "Payment confirmations by tier",
		},
		[]string{"tier", "status"},
	)
)

// Collector provides convenience methods for recording metrics
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// RecordStage records a pipeline stage duration
func (c *Collector) RecordStage(stage string, duration time.Duration, success bool) {
	stageDuration.WithLabelValues(stage, statusLabel(success)).Observe(duration.Seconds())
}

// RecordProviderCall counts one upstream model call
func (c *Collector) RecordProviderCall(kind string, success bool) {
	providerCalls.WithLabelValues(kind, statusLabel(success)).Inc()
}

// RecordRateLimiterWait records rate limiter wait time
func (c *Collector) RecordRateLimiterWait(model string, duration time.Duration) {
	rateLimiterWaitDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveImageBatch records the outcome of one image batch invocation
func (c *Collector) ObserveImageBatch(retryRounds, missing int) {
	imageRetryRounds.Observe(float64(retryRounds))
	missingImageSlots.Set(float64(missing))
}

// RecordPayment counts a payment confirmation attempt
func (c *Collector) RecordPayment(tier string, success bool) {
	payments.WithLabelValues(tier, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
