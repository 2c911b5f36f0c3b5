package chat

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
)

const (
	outcomeGenerated = "generated"
	outcomeFallback  = "fallback"
)

var (
	metricsOnce  sync.Once
	repliesTotal metric.Int64Counter
)

func recordOutcome(ctx context.Context, outcome, category string) {
	metricsOnce.Do(func() {
		counter, err := otel.GetMeterProvider().Meter("pharens.chat").Int64Counter(
			metrics.MetricNameWithSubsystem("chat", "replies_total"),
			metric.WithDescription("Chat replies by outcome and fallback category"),
		)
		if err == nil {
			repliesTotal = counter
		}
	})
	if repliesTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("outcome", outcome)}
	if category != "" {
		attrs = append(attrs, attribute.String("category", category))
	}
	repliesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
