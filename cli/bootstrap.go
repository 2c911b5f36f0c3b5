package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pharens/pharens-ai/engine/analytics"
	"github.com/pharens/pharens-ai/engine/chat"
	"github.com/pharens/pharens-ai/engine/infra/monitoring"
	"github.com/pharens/pharens-ai/engine/infra/postgres"
	"github.com/pharens/pharens-ai/engine/infra/server/appstate"
	"github.com/pharens/pharens-ai/engine/infra/server/middleware/ratelimit"
	chatrouter "github.com/pharens/pharens-ai/engine/infra/server/router/chat"
	"github.com/pharens/pharens-ai/engine/infra/server/routes"
	"github.com/pharens/pharens-ai/engine/knowledge/embedder"
	"github.com/pharens/pharens-ai/engine/knowledge/retriever"
	"github.com/pharens/pharens-ai/engine/knowledge/seed"
	"github.com/pharens/pharens-ai/engine/knowledge/vectordb"
	"github.com/pharens/pharens-ai/engine/leads"
	"github.com/pharens/pharens-ai/engine/llm"
	"github.com/pharens/pharens-ai/engine/telephony"
	"github.com/pharens/pharens-ai/pkg/config"
	"github.com/pharens/pharens-ai/pkg/logger"
)

const embedBatchSize = 16

// App is the wired dependency graph. Close releases everything it opened in
// reverse order.
type App struct {
	Monitoring *monitoring.Service
	Populator  *seed.Populator
	RateLimit  *ratelimit.Manager
	State      *appstate.State
	closers    []func(context.Context) error
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// knowledgeDeps is the subset shared by the server and the populate job.
type knowledgeDeps struct {
	embedder  *embedder.Client
	store     vectordb.Store
	populator *seed.Populator
}

// Bootstrap constructs every client from cfg and assembles the request state.
func Bootstrap(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			err = errors.Join(err, app.Close(context.WithoutCancel(ctx)))
		}
	}()
	app.Monitoring = monitoring.NewServiceWithFallback(ctx, &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled,
		Path:    cfg.Monitoring.Path,
	})
	if app.Monitoring.IsInitialized() {
		app.Monitoring.SetAsGlobal()
	}
	app.onClose(app.Monitoring.Shutdown)

	kd, err := newKnowledge(ctx, cfg, app)
	if err != nil {
		return nil, err
	}
	app.Populator = kd.populator
	orchestrator, err := newOrchestrator(ctx, cfg, kd)
	if err != nil {
		return nil, err
	}
	recorder, err := analytics.NewRecorder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics recorder: %w", err)
	}
	checks := map[string]appstate.HealthChecker{}
	leadService, err := newLeads(ctx, cfg, app, checks)
	if err != nil {
		return nil, err
	}
	app.RateLimit, err = newRateLimit(cfg, app, checks)
	if err != nil {
		return nil, err
	}
	app.State = &appstate.State{
		Chat:      orchestrator,
		Knowledge: kd.populator,
		Calls: telephony.NewClient(telephony.Config{
			BaseURL:     cfg.Vapi.BaseURL,
			PrivateKey:  cfg.Vapi.PrivateKey.Value(),
			AssistantID: cfg.Vapi.AssistantID,
			Timeout:     cfg.Vapi.Timeout,
		}),
		Leads:     leadService,
		Analytics: recorder,
		Checks:    checks,
		Version:   monitoring.Version,
	}
	if err := app.State.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

func newKnowledge(ctx context.Context, cfg *config.Config, app *App) (*knowledgeDeps, error) {
	adapter, err := embedder.New(&embedder.Config{
		ID:        "knowledge",
		Provider:  embedder.Provider(cfg.Ollama.Provider),
		BaseURL:   cfg.Ollama.BaseURL,
		Model:     cfg.Ollama.EmbeddingModel,
		Dimension: cfg.Vector.Dimension,
		BatchSize: embedBatchSize,
		Timeout:   cfg.Ollama.EmbedTimeout,
		CacheSize: cfg.Knowledge.EmbeddingCacheSize,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	emb := embedder.NewClient(adapter, cfg.Ollama.EmbedTimeout)
	store, err := vectordb.New(ctx, &vectordb.Config{
		ID:          "knowledge",
		Provider:    vectordb.Provider(cfg.Vector.Provider),
		DSN:         cfg.Vector.DSN,
		Table:       cfg.Vector.Table,
		Dimension:   cfg.Vector.Dimension,
		EnsureIndex: cfg.Vector.EnsureIndex,
		APIKey:      cfg.Vector.APIKey.Value(),
		RPCFunction: cfg.Vector.RPCFunction,
		Timeout:     cfg.Knowledge.SearchTimeout,
		MaxConns:    cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	app.onClose(store.Close)
	populator, err := seed.NewPopulator(emb, store, seed.Options{
		Concurrency: cfg.Knowledge.PopulateConcurrency,
		Retries:     uint64(max(cfg.Knowledge.PopulateRetries, 0)),
		RetryBase:   cfg.Knowledge.PopulateRetryBase,
		Batch:       adapter,
	})
	if err != nil {
		return nil, err
	}
	return &knowledgeDeps{embedder: emb, store: store, populator: populator}, nil
}

func newOrchestrator(ctx context.Context, cfg *config.Config, kd *knowledgeDeps) (*chat.Orchestrator, error) {
	gateway, err := retriever.NewGateway(kd.store,
		retriever.WithTimeout(cfg.Knowledge.SearchTimeout),
		retriever.WithProvider(cfg.Vector.Provider),
	)
	if err != nil {
		return nil, err
	}
	backend, err := llm.NewBackend(llm.Provider(cfg.Ollama.Provider), cfg.Ollama.BaseURL, cfg.Ollama.ChatModel, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation backend: %w", err)
	}
	generator, err := llm.NewClient(backend, llm.Config{
		Provider:    llm.Provider(cfg.Ollama.Provider),
		Model:       cfg.Ollama.ChatModel,
		Temperature: cfg.Ollama.Temperature,
		MaxTokens:   cfg.Ollama.MaxTokens,
		Timeout:     cfg.Ollama.GenerateTimeout,
		Breaker: llm.BreakerConfig{
			Enabled:               cfg.Ollama.Breaker.Enabled,
			ErrorPercentThreshold: cfg.Ollama.Breaker.ErrorPercentThreshold,
			MinimumRequests:       cfg.Ollama.Breaker.MinimumRequests,
			OpenStateWait:         cfg.Ollama.Breaker.OpenStateWait,
		},
	})
	if err != nil {
		return nil, err
	}
	var counter chat.TokenCounter = chat.RuneCounter{}
	if tc, err := chat.NewTiktokenCounter(cfg.Chat.TokenEncoding); err == nil {
		counter = tc
	} else {
		logger.FromContext(ctx).Warn("Token encoding unavailable, estimating by runes", "error", err)
	}
	return chat.NewOrchestrator(kd.embedder, gateway, generator, chat.Options{
		Threshold: cfg.Knowledge.SimilarityThreshold,
		Limit:     cfg.Knowledge.MatchCount,
		History: chat.Window{
			MaxMessages: cfg.Chat.HistoryMaxMessages,
			MaxTokens:   cfg.Chat.HistoryMaxTokens,
			Counter:     counter,
		},
	})
}

// newLeads opens the lead database when one is configured. Without it the
// service answers ErrNotConfigured.
func newLeads(
	ctx context.Context,
	cfg *config.Config,
	app *App,
	checks map[string]appstate.HealthChecker,
) (*leads.Service, error) {
	conn := cfg.Database.ConnString.Value()
	if conn == "" {
		logger.FromContext(ctx).Info("No database configured, lead capture disabled")
		return leads.NewService(nil), nil
	}
	store, err := postgres.NewStore(ctx, &postgres.Config{
		ConnString: conn,
		MaxConns:   cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect lead database: %w", err)
	}
	app.onClose(store.Close)
	checks["leads_db"] = store
	return leads.NewService(leads.NewPostgresRepository(store.Pool())), nil
}

type redisCheck struct{ client redis.UniversalClient }

func (r redisCheck) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// newRateLimit returns nil when rate limiting is off. Limits are shared
// across instances through Redis when an address is set.
func newRateLimit(
	cfg *config.Config,
	app *App,
	checks map[string]appstate.HealthChecker,
) (*ratelimit.Manager, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	rlCfg := rateLimitConfig(&cfg.RateLimit)
	var client redis.UniversalClient
	if cfg.Redis.Addr != "" {
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password.Value(),
			DB:       cfg.Redis.DB,
		})
		app.onClose(func(context.Context) error { return c.Close() })
		checks["redis"] = redisCheck{client: c}
		client = c
	}
	manager, err := ratelimit.NewManager(rlCfg, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	return manager, nil
}

// rateLimitConfig overlays the configured limits on the built-in per-route
// defaults.
func rateLimitConfig(rc *config.RateLimitConfig) *ratelimit.Config {
	out := ratelimit.DefaultConfig()
	if rc.GlobalRate.Limit > 0 && rc.GlobalRate.Period > 0 {
		out.GlobalRate = ratelimit.RateConfig{Limit: rc.GlobalRate.Limit, Period: rc.GlobalRate.Period}
	}
	rates := maps.Clone(out.RouteRates)
	for route, rate := range rc.RouteRates {
		rates[route] = ratelimit.RateConfig{Limit: rate.Limit, Period: rate.Period}
	}
	out.RouteRates = rates
	if rc.Prefix != "" {
		out.Prefix = rc.Prefix
	}
	if rc.MaxRetry > 0 {
		out.MaxRetry = rc.MaxRetry
	}
	out.LimitReplies = map[string]gin.HandlerFunc{routes.Chat(): chatrouter.LimitReached}
	return out
}
