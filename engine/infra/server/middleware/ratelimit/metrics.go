package ratelimit

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
)

var (
	blocksTotal metric.Int64Counter
	metricsOnce sync.Once
)

func recordBlocked(ctx context.Context, route string) {
	metricsOnce.Do(func() {
		c, err := otel.GetMeterProvider().Meter("pharens.ratelimit").Int64Counter(
			metrics.MetricNameWithSubsystem("ratelimit", "blocks_total"),
			metric.WithDescription("Requests rejected by rate limiting"),
		)
		if err == nil {
			blocksTotal = c
		}
	})
	if blocksTotal == nil {
		return
	}
	blocksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}
