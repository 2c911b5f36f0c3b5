package llm

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
)

const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeTimeout     = "timeout"
	outcomeCircuitOpen = "circuit_open"
)

var (
	metricsOnce       sync.Once
	generationLatency metric.Float64Histogram
	generationTotal   metric.Int64Counter
)

func initMetrics() {
	meter := otel.GetMeterProvider().Meter("pharens.llm")
	var err error
	generationLatency, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("llm", "generation_seconds"),
		metric.WithDescription("Latency of chat completions"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.BackendDurationBuckets...),
	)
	if err != nil {
		generationLatency = nil
	}
	generationTotal, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("llm", "generations_total"),
		metric.WithDescription("Chat completions by outcome"),
	)
	if err != nil {
		generationTotal = nil
	}
}

func recordGeneration(ctx context.Context, model, outcome string, d time.Duration) {
	metricsOnce.Do(initMetrics)
	attrs := metric.WithAttributes(attribute.String("model", model), attribute.String("outcome", outcome))
	if generationLatency != nil {
		generationLatency.Record(ctx, d.Seconds(), attrs)
	}
	if generationTotal != nil {
		generationTotal.Add(ctx, 1, attrs)
	}
}
