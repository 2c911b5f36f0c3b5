// Package ratelimit throttles API callers by IP using ulule/limiter, backed by
// Redis when a client is supplied and by process memory otherwise.
package ratelimit

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/pharens/pharens-ai/pkg/logger"
)

const globalScope = "global"

type routeLimiter struct {
	prefix  string
	handler gin.HandlerFunc
}

type Manager struct {
	config *Config
	global gin.HandlerFunc
	routes []routeLimiter
}

// NewManager builds one limiter per configured route plus the global one. A
// nil client selects the in-memory store.
func NewManager(cfg *Config, client redis.UniversalClient) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := newStore(cfg, client)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		config: cfg,
		global: newHandler(store, cfg.GlobalRate, globalScope, nil),
	}
	for prefix, rate := range cfg.RouteRates {
		h := newHandler(store, rate, prefix, cfg.LimitReplies[prefix])
		m.routes = append(m.routes, routeLimiter{prefix: prefix, handler: h})
	}
	// longest prefix wins
	sort.Slice(m.routes, func(i, j int) bool { return len(m.routes[i].prefix) > len(m.routes[j].prefix) })
	return m, nil
}

func newStore(cfg *Config, client redis.UniversalClient) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: cfg.Prefix, MaxRetry: cfg.MaxRetry}
	if client == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	return sredis.NewStoreWithOptions(client, opts)
}

func newHandler(store limiter.Store, rate RateConfig, scope string, reply gin.HandlerFunc) gin.HandlerFunc {
	l := limiter.New(store, rate.ToLimiterRate())
	return mgin.NewMiddleware(l,
		mgin.WithKeyGetter(func(c *gin.Context) string { return scope + ":" + c.ClientIP() }),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			recordBlocked(c.Request.Context(), scope)
			logger.FromContext(c.Request.Context()).Warn("Rate limit exceeded", "scope", scope, "client_ip", c.ClientIP())
			if reply != nil {
				reply(c)
				return
			}
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests, please try again later"})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open
			logger.FromContext(c.Request.Context()).Error("Rate limiter store failed", "scope", scope, "error", err)
			c.Next()
		}),
	)
}

func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, ex := range m.config.ExcludedPaths {
			if strings.HasPrefix(path, ex) {
				c.Next()
				return
			}
		}
		for _, r := range m.routes {
			if strings.HasPrefix(path, r.prefix) {
				r.handler(c)
				return
			}
		}
		m.global(c)
	}
}
