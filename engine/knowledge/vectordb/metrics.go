package vectordb

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
)

const labelUnknownValue = "unknown"

var (
	vectorMetricsOnce       sync.Once
	vectorMetricsErr        error
	vectorSearchLatency     metric.Float64Histogram
	vectorResultsCount      metric.Float64Histogram
	vectorTopScore          metric.Float64Histogram
	vectorActiveConnections metric.Int64ObservableGauge
	vectorErrorsTotal       metric.Int64Counter
	vectorPools             sync.Map
	vectorGaugeReg          metric.Registration
)

func ensureVectorMetrics() error {
	vectorMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("pharens.knowledge.vector")
		if err := initVectorHistograms(meter); err != nil {
			vectorMetricsErr = err
			return
		}
		vectorErrorsTotal, vectorMetricsErr = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("vectordb", "errors_total"),
			metric.WithDescription("Vector store operation errors"),
		)
		if vectorMetricsErr != nil {
			return
		}
		vectorMetricsErr = initVectorGauge(meter)
	})
	return vectorMetricsErr
}

func initVectorHistograms(meter metric.Meter) error {
	var err error
	vectorSearchLatency, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("vectordb", "search_seconds"),
		metric.WithDescription("Vector similarity search latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.BackendDurationBuckets...),
	)
	if err != nil {
		return err
	}
	vectorResultsCount, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("vectordb", "results_per_search"),
		metric.WithDescription("Number of matches returned per search"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 10),
	)
	if err != nil {
		return err
	}
	vectorTopScore, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("vectordb", "top_similarity"),
		metric.WithDescription("Similarity of the best match"),
		metric.WithExplicitBucketBoundaries(metrics.SimilarityBuckets...),
	)
	return err
}

func initVectorGauge(meter metric.Meter) error {
	var err error
	vectorActiveConnections, err = meter.Int64ObservableGauge(
		metrics.MetricNameWithSubsystem("vectordb", "connections_active"),
		metric.WithDescription("Acquired vector database connections"),
	)
	if err != nil {
		return err
	}
	vectorGaugeReg, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		vectorPools.Range(func(key, value any) bool {
			pool, ok := value.(*pgxpool.Pool)
			if !ok || pool == nil {
				return true
			}
			id, _ := key.(string)
			observer.ObserveInt64(
				vectorActiveConnections,
				int64(pool.Stat().AcquiredConns()),
				metric.WithAttributes(attribute.String("vector_db_id", sanitizeLabel(id))),
			)
			return true
		})
		return nil
	}, vectorActiveConnections)
	return err
}

// ShutdownVectorMetrics unregisters the pool gauge callback.
func ShutdownVectorMetrics() {
	if vectorGaugeReg != nil {
		_ = vectorGaugeReg.Unregister()
	}
}

func recordVectorSearch(ctx context.Context, provider string, topK int, d time.Duration, matches []Match) {
	if err := ensureVectorMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", sanitizeLabel(provider)),
		attribute.Int("top_k", topK),
	)
	vectorSearchLatency.Record(ctx, d.Seconds(), attrs)
	vectorResultsCount.Record(ctx, float64(len(matches)), attrs)
	if len(matches) > 0 {
		vectorTopScore.Record(ctx, matches[0].Score, attrs)
	}
}

func recordVectorError(ctx context.Context, operation, provider string) {
	if err := ensureVectorMetrics(); err != nil || vectorErrorsTotal == nil {
		return
	}
	vectorErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", sanitizeLabel(operation)),
		attribute.String("provider", sanitizeLabel(provider)),
	))
}

func trackVectorPool(id string, pool *pgxpool.Pool) {
	if pool == nil || ensureVectorMetrics() != nil {
		return
	}
	vectorPools.Store(sanitizeLabel(id), pool)
}

func untrackVectorPool(id string) {
	vectorPools.Delete(sanitizeLabel(id))
}

func sanitizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return labelUnknownValue
	}
	return strings.ToLower(trimmed)
}
