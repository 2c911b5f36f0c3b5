package ratelimit

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// Config holds the global and per-route limits. Limits are keyed by client IP.
type Config struct {
	GlobalRate    RateConfig
	RouteRates    map[string]RateConfig
	Prefix        string
	MaxRetry      int
	ExcludedPaths []string
	// LimitReplies answers throttled requests on a route prefix in place of
	// the 429 body.
	LimitReplies map[string]gin.HandlerFunc
}

type RateConfig struct {
	Period time.Duration
	Limit  int64
}

// DefaultConfig keeps outbound calls and lead capture tighter than chat.
func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{Limit: 60, Period: time.Minute},
		RouteRates: map[string]RateConfig{
			"/api/chat":               {Limit: 30, Period: time.Minute},
			"/api/vapi-outbound-call": {Limit: 5, Period: time.Minute},
			"/api/knowledge":          {Limit: 5, Period: time.Minute},
			"/api/leads":              {Limit: 10, Period: time.Minute},
			"/api/newsletter":         {Limit: 10, Period: time.Minute},
		},
		Prefix:        "pharens:ratelimit:",
		MaxRetry:      3,
		ExcludedPaths: []string{"/api/health", "/metrics"},
	}
}

func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{Period: rc.Period, Limit: rc.Limit}
}

func (c *Config) Validate() error {
	if c.GlobalRate.Limit <= 0 || c.GlobalRate.Period <= 0 {
		return fmt.Errorf("global rate limit must be positive")
	}
	for route, rate := range c.RouteRates {
		if rate.Limit <= 0 || rate.Period <= 0 {
			return fmt.Errorf("route rate limit for %s must be positive", route)
		}
	}
	return nil
}
