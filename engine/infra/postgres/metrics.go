package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
)

const (
	defaultPoolLabel = "default"
	meterName        = "pharens.postgres"
	maxWaitSamples   = 128
)

var (
	metricsOnce  sync.Once
	metricsErr   error
	connsOpen    metric.Int64ObservableGauge
	connsInUse   metric.Int64ObservableGauge
	connsIdle    metric.Int64ObservableGauge
	connWaitTime metric.Float64Histogram
	trackedPools sync.Map
)

type poolMetrics struct {
	label     string
	pool      atomic.Pointer[pgxpool.Pool]
	mu        sync.Mutex
	lastCount int64
	lastWait  time.Duration
}

// configurePostgresMetrics hooks PrepareConn so acquire waits are sampled.
func configurePostgresMetrics(poolCfg *pgxpool.Config) (*poolMetrics, error) {
	if err := ensureMetrics(); err != nil {
		return nil, fmt.Errorf("postgres: init metrics: %w", err)
	}
	pm := &poolMetrics{label: poolLabel(poolCfg.ConnConfig.Host, poolCfg.ConnConfig.Database)}
	prev := poolCfg.PrepareConn
	poolCfg.PrepareConn = func(ctx context.Context, conn *pgx.Conn) (bool, error) {
		if prev != nil {
			if ok, err := prev(ctx, conn); !ok || err != nil {
				return ok, err
			}
		}
		pm.recordWait(ctx)
		return true, nil
	}
	return pm, nil
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		metricsErr = initInstruments(meter)
		if metricsErr == nil {
			metricsErr = registerPoolCallback(meter)
		}
	})
	return metricsErr
}

func initInstruments(meter metric.Meter) error {
	var err error
	if connsOpen, err = meter.Int64ObservableGauge(
		metrics.MetricNameWithSubsystem("postgres", "connections_open"),
		metric.WithDescription("Open lead database connections"),
	); err != nil {
		return err
	}
	if connsInUse, err = meter.Int64ObservableGauge(
		metrics.MetricNameWithSubsystem("postgres", "connections_in_use"),
		metric.WithDescription("Lead database connections currently acquired"),
	); err != nil {
		return err
	}
	if connsIdle, err = meter.Int64ObservableGauge(
		metrics.MetricNameWithSubsystem("postgres", "connections_idle"),
		metric.WithDescription("Idle lead database connections"),
	); err != nil {
		return err
	}
	connWaitTime, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("postgres", "connection_wait_duration_seconds"),
		metric.WithDescription("Time spent waiting for a pooled connection"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2),
	)
	return err
}

func registerPoolCallback(meter metric.Meter) error {
	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		trackedPools.Range(func(_, value any) bool {
			pm, ok := value.(*poolMetrics)
			if !ok {
				return true
			}
			pool := pm.pool.Load()
			if pool == nil {
				return true
			}
			stats := pool.Stat()
			attrs := metric.WithAttributes(attribute.String("pool", pm.label))
			o.ObserveInt64(connsOpen, int64(stats.TotalConns()), attrs)
			o.ObserveInt64(connsInUse, int64(stats.AcquiredConns()), attrs)
			o.ObserveInt64(connsIdle, int64(stats.IdleConns()), attrs)
			return true
		})
		return nil
	}, connsOpen, connsInUse, connsIdle)
	return err
}

func (p *poolMetrics) attach(pool *pgxpool.Pool) {
	p.pool.Store(pool)
	stats := pool.Stat()
	p.mu.Lock()
	p.lastCount = stats.EmptyAcquireCount()
	p.lastWait = stats.EmptyAcquireWaitTime()
	p.mu.Unlock()
	trackedPools.Store(p, p)
}

func (p *poolMetrics) unregister() {
	trackedPools.Delete(p)
	p.pool.Store(nil)
}

// recordWait spreads the wait accumulated since the last sample evenly over
// the acquires that had to block.
func (p *poolMetrics) recordWait(ctx context.Context) {
	pool := p.pool.Load()
	if pool == nil || connWaitTime == nil {
		return
	}
	stats := pool.Stat()
	p.mu.Lock()
	defer p.mu.Unlock()
	count, wait := stats.EmptyAcquireCount(), stats.EmptyAcquireWaitTime()
	dc, dw := count-p.lastCount, wait-p.lastWait
	p.lastCount, p.lastWait = count, wait
	if dc <= 0 || dw <= 0 {
		return
	}
	avg := dw.Seconds() / float64(dc)
	attrs := metric.WithAttributes(attribute.String("pool", p.label))
	for range min(dc, maxWaitSamples) {
		connWaitTime.Record(ctx, avg, attrs)
	}
}

func poolLabel(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := sanitizeLabel(part); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return defaultPoolLabel
	}
	return strings.Join(kept, "-")
}

func sanitizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == ':':
			return r
		default:
			return '_'
		}
	}, s)
	return strings.Trim(out, "_")
}
