// Package postgres owns the pgx pool used for lead capture.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharens/pharens-ai/pkg/logger"
)

const (
	defaultMaxConns           = 4
	defaultHealthCheckPeriod  = 30 * time.Second
	defaultConnectTimeout     = 5 * time.Second
	defaultPingTimeout        = 3 * time.Second
	defaultHealthCheckTimeout = 1 * time.Second
)

var ErrMissingConnString = errors.New("postgres: connection string is required")

// Store wraps a pgxpool.Pool with health checks and pool metrics.
type Store struct {
	pool               *pgxpool.Pool
	metrics            *poolMetrics
	healthCheckTimeout time.Duration
}

// NewStore opens the pool and pings it before returning.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil || cfg.ConnString == "" {
		return nil, ErrMissingConnString
	}
	poolCfg, tracker, err := buildPoolConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := verifyPoolConnection(ctx, pool, tracker, cfg.PingTimeout); err != nil {
		return nil, err
	}
	if tracker != nil {
		tracker.attach(pool)
	}
	hc := cfg.HealthCheckTimeout
	if hc <= 0 {
		hc = defaultHealthCheckTimeout
	}
	logger.FromContext(ctx).With(
		"store_driver", "postgres",
		"host", poolCfg.ConnConfig.Host,
		"db_name", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	).Info("Lead store initialized")
	return &Store{pool: pool, metrics: tracker, healthCheckTimeout: hc}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.metrics != nil {
		s.metrics.unregister()
	}
	s.pool.Close()
	logger.FromContext(ctx).Info("Postgres store closed")
	return nil
}

// Pool exposes the pool to repositories in this module.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) HealthCheck(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, s.healthCheckTimeout)
	defer cancel()
	if err := s.pool.Ping(hctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func buildPoolConfig(ctx context.Context, cfg *Config) (*pgxpool.Config, *poolMetrics, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	tracker, mErr := configurePostgresMetrics(poolCfg)
	if mErr != nil {
		logger.FromContext(ctx).With("err", mErr).Warn("Postgres metrics not initialized; continuing without metrics")
	}
	poolCfg.MaxConns, poolCfg.MinConns = connectionBounds(cfg)
	poolCfg.HealthCheckPeriod = orDefault(cfg.HealthCheckPeriod, defaultHealthCheckPeriod)
	poolCfg.ConnConfig.ConnectTimeout = orDefault(cfg.ConnectTimeout, defaultConnectTimeout)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	return poolCfg, tracker, nil
}

// connectionBounds keeps 0 <= min <= max.
func connectionBounds(cfg *Config) (int32, int32) {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	minConns := max(cfg.MinConns, 0)
	return maxConns, min(minConns, maxConns)
}

func orDefault(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func verifyPoolConnection(ctx context.Context, pool *pgxpool.Pool, tracker *poolMetrics, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, orDefault(timeout, defaultPingTimeout))
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		if tracker != nil {
			tracker.unregister()
		}
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}
