package postgres

import "time"

// Config holds the lead database connection settings. ConnString is a
// libpq-style DSN or postgres:// URL.
type Config struct {
	ConnString         string
	MaxConns           int32
	MinConns           int32
	ConnectTimeout     time.Duration
	PingTimeout        time.Duration
	HealthCheckTimeout time.Duration
	HealthCheckPeriod  time.Duration
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
}
