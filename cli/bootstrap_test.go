package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharens/pharens-ai/engine/leads"
	"github.com/pharens/pharens-ai/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Chat.TokenEncoding = "not-an-encoding"
	cfg.Vapi.PrivateKey = ""
	cfg.Database.ConnString = ""
	return cfg
}

func TestBootstrap(t *testing.T) {
	t.Run("Should wire a complete state without optional backends", func(t *testing.T) {
		app, err := Bootstrap(t.Context(), testConfig())
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, app.Close(t.Context())) })
		require.NoError(t, app.State.Validate())
		assert.Nil(t, app.RateLimit)
		assert.Empty(t, app.State.Checks)
		assert.False(t, app.State.Calls.Configured())
		assert.False(t, app.Monitoring.IsInitialized())
		_, err = app.State.Leads.Subscribe(t.Context(), "a@b.co")
		assert.True(t, errors.Is(err, leads.ErrNotConfigured))
	})

	t.Run("Should share rate limits through redis when configured", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.RateLimit.Enabled = true
		cfg.Redis.Addr = mr.Addr()
		app, err := Bootstrap(t.Context(), cfg)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, app.Close(t.Context())) })
		require.NotNil(t, app.RateLimit)
		require.Contains(t, app.State.Checks, "redis")
		assert.NoError(t, app.State.Checks["redis"].HealthCheck(t.Context()))
	})

	t.Run("Should fail on an unknown vector provider", func(t *testing.T) {
		cfg := testConfig()
		cfg.Vector.Provider = "cassandra"
		_, err := Bootstrap(t.Context(), cfg)
		require.Error(t, err)
	})
}

func TestRateLimitConfig(t *testing.T) {
	t.Run("Should overlay configured routes on the defaults", func(t *testing.T) {
		out := rateLimitConfig(&config.RateLimitConfig{
			GlobalRate: config.RateConfig{Limit: 100, Period: time.Minute},
			RouteRates: map[string]config.RateConfig{"/api/chat": {Limit: 3, Period: time.Second}},
		})
		assert.Equal(t, int64(100), out.GlobalRate.Limit)
		assert.Equal(t, int64(3), out.RouteRates["/api/chat"].Limit)
		assert.Equal(t, int64(5), out.RouteRates["/api/vapi-outbound-call"].Limit)
		assert.Equal(t, "pharens:ratelimit:", out.Prefix)
		assert.Contains(t, out.LimitReplies, "/api/chat")
		require.NoError(t, out.Validate())
	})
}
