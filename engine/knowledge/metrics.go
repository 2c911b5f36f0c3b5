package knowledge

import (
	"context"
	"sync"
	"time"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce        sync.Once
	metricsMu          sync.Mutex
	metricsInitErr     error
	queryLatencyHist   metric.Float64Histogram
	retrievalEmpty     metric.Int64Counter
	populateItems      metric.Int64Counter
	populateDurationHi metric.Float64Histogram
)

// RecordQueryLatency tracks one retrieval round trip to the vector store.
func RecordQueryLatency(ctx context.Context, provider string, d time.Duration) {
	if err := ensureMetrics(); err != nil || queryLatencyHist == nil {
		return
	}
	queryLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordRetrievalEmpty counts searches that yielded no usable context.
// reason is one of "no_match", "error" or "skipped".
func RecordRetrievalEmpty(ctx context.Context, reason string) {
	if err := ensureMetrics(); err != nil || retrievalEmpty == nil {
		return
	}
	retrievalEmpty.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordPopulateItem counts corpus items by outcome ("stored", "embed_failed", "store_failed").
func RecordPopulateItem(ctx context.Context, outcome string) {
	if err := ensureMetrics(); err != nil || populateItems == nil {
		return
	}
	populateItems.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordPopulateDuration(ctx context.Context, d time.Duration) {
	if err := ensureMetrics(); err != nil || populateDurationHi == nil {
		return
	}
	populateDurationHi.Record(ctx, d.Seconds())
}

func ResetMetricsForTesting() {
	metricsMu.Lock()
	metricsOnce = sync.Once{}
	metricsInitErr = nil
	queryLatencyHist = nil
	retrievalEmpty = nil
	populateItems = nil
	populateDurationHi = nil
	metricsMu.Unlock()
}

func ensureMetrics() error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("pharens.knowledge")
		metricsInitErr = initMetrics(meter)
	})
	return metricsInitErr
}

func initMetrics(meter metric.Meter) error {
	var err error
	queryLatencyHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "query_latency_seconds"),
		metric.WithDescription("Latency of knowledge base similarity queries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return err
	}
	retrievalEmpty, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "retrieval_empty_total"),
		metric.WithDescription("Retrievals that produced no context"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	populateItems, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "populate_items_total"),
		metric.WithDescription("Corpus items processed by the population job"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	populateDurationHi, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "populate_duration_seconds"),
		metric.WithDescription("Duration of a full population run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.BackendDurationBuckets...),
	)
	return err
}
