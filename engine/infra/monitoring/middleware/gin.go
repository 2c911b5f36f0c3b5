// Package middleware records HTTP request metrics for gin routers.
package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
)

const unmatchedRoute = "unmatched"

type instruments struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	total, err := meter.Int64Counter(
		metrics.MetricNameWithSubsystem("http", "requests_total"),
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("http", "request_duration_seconds"),
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter(
		metrics.MetricNameWithSubsystem("http", "requests_in_flight"),
		metric.WithDescription("Currently active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	return &instruments{total: total, duration: duration, inFlight: inFlight}, nil
}

var (
	cacheMu sync.Mutex
	cache   = map[metric.Meter]*instruments{}
)

func instrumentsFor(meter metric.Meter) *instruments {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if inst, ok := cache[meter]; ok {
		return inst
	}
	inst, err := newInstruments(meter)
	if err != nil {
		return nil
	}
	cache[meter] = inst
	return inst
}

// HTTPMetrics counts requests and observes their latency labelled by method,
// route template and status code.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	inst := instrumentsFor(meter)
	return func(c *gin.Context) {
		if inst == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		start := time.Now()
		inst.inFlight.Add(ctx, 1)
		defer inst.inFlight.Add(ctx, -1)
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		inst.total.Add(ctx, 1, attrs)
		inst.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
