package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/goresilience"
	"github.com/slok/goresilience/circuitbreaker"
	rerrors "github.com/slok/goresilience/errors"
	"github.com/slok/goresilience/timeout"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("completion is empty")

// BreakerConfig opens the circuit once enough generations fail.
type BreakerConfig struct {
	Enabled               bool
	ErrorPercentThreshold int
	MinimumRequests       int
	OpenStateWait         time.Duration
}

type Config struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Breaker     BreakerConfig
}

func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOllama,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
		Breaker: BreakerConfig{
			Enabled:               true,
			ErrorPercentThreshold: 50,
			MinimumRequests:       5,
			OpenStateWait:         15 * time.Second,
		},
	}
}

// Client wraps a Backend with a timeout and a circuit breaker. Every failure
// mode is reported as a failed Result.
type Client struct {
	backend Backend
	cfg     Config
	runner  goresilience.Runner
}

func NewClient(backend Backend, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, errors.New("llm: backend is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	chain := []goresilience.Middleware{
		timeout.NewMiddleware(timeout.Config{Timeout: cfg.Timeout}),
	}
	if cfg.Breaker.Enabled {
		chain = append(chain, circuitbreaker.NewMiddleware(circuitbreaker.Config{
			ErrorPercentThresholdToOpen:        cfg.Breaker.ErrorPercentThreshold,
			MinimumRequestToOpen:               cfg.Breaker.MinimumRequests,
			SuccessfulRequiredOnHalfOpen:       1,
			WaitDurationInOpenState:            cfg.Breaker.OpenStateWait,
			MetricsSlidingWindowBucketQuantity: 10,
			MetricsBucketDuration:              time.Second,
		}))
	}
	return &Client{backend: backend, cfg: cfg, runner: goresilience.RunnerChain(chain...)}, nil
}

// Generate asks the model to answer userMessage under systemPrompt. A
// successful result carries the completion verbatim.
func (c *Client) Generate(ctx context.Context, systemPrompt, userMessage string) core.Result[string] {
	req := Request{
		Prompt:      BuildPrompt(systemPrompt, userMessage),
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	start := time.Now()
	var text string
	err := c.runner.Run(ctx, func(ctx context.Context) (runErr error) {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		out, err := c.backend.Complete(ctx, req)
		if err != nil {
			return err
		}
		if out == "" {
			return ErrEmptyCompletion
		}
		text = out
		return nil
	})
	if err != nil {
		outcome := outcomeError
		switch {
		case errors.Is(err, rerrors.ErrCircuitOpen):
			outcome = outcomeCircuitOpen
		case errors.Is(err, rerrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			outcome = outcomeTimeout
		}
		recordGeneration(ctx, c.cfg.Model, outcome, time.Since(start))
		logger.FromContext(ctx).Warn("Chat generation failed",
			"model", c.cfg.Model,
			"outcome", outcome,
			"error", core.RedactError(err),
		)
		return core.Failed[string](fmt.Errorf("llm generate: %w", err))
	}
	recordGeneration(ctx, c.cfg.Model, outcomeOK, time.Since(start))
	return core.Ok(text)
}
