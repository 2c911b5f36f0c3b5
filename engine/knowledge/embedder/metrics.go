package embedder

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
	metricsOnce    sync.Once
	metricsErr     error
	cacheCounter   metric.Int64Counter
	errorCounter   metric.Int64Counter
	textCounter    metric.Int64Counter
	latencySeconds metric.Float64Histogram
)

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("pharens.knowledge.embedder")
		var err error
		if cacheCounter, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("embedder", "cache_lookups_total"),
			metric.WithDescription("Query embedding cache lookups by result"),
		); err != nil {
			metricsErr = err
			return
		}
		if errorCounter, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("embedder", "errors_total"),
			metric.WithDescription("Embedding failures by category"),
		); err != nil {
			metricsErr = err
			return
		}
		if textCounter, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("embedder", "texts_total"),
			metric.WithDescription("Texts embedded"),
		); err != nil {
			metricsErr = err
			return
		}
		latencySeconds, metricsErr = meter.Float64Histogram(
			metrics.MetricNameWithSubsystem("embedder", "latency_seconds"),
			metric.WithDescription("Embedding call latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(metrics.BackendDurationBuckets...),
		)
	})
	return metricsErr
}

func recordCacheHit(ctx context.Context, provider string) {
	recordCache(ctx, provider, "hit")
}

func recordCacheMiss(ctx context.Context, provider string) {
	recordCache(ctx, provider, "miss")
}

func recordCache(ctx context.Context, provider, result string) {
	if ensureMetrics() != nil {
		return
	}
	cacheCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("result", result),
	))
}

func recordError(ctx context.Context, provider, category string) {
	if ensureMetrics() != nil {
		return
	}
	errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("error_type", category),
	))
}

func recordGeneration(ctx context.Context, provider, model string, texts int, d time.Duration) {
	if ensureMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider), attribute.String("model", model))
	textCounter.Add(ctx, int64(texts), attrs)
	latencySeconds.Record(ctx, d.Seconds(), attrs)
}
