package config

import (
	"context"
	"time"
)

// Config represents the complete configuration for the Pharens AI backend.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Runtime    RuntimeConfig    `koanf:"runtime"`
	Ollama     OllamaConfig     `koanf:"ollama"`
	Knowledge  KnowledgeConfig  `koanf:"knowledge"`
	Vector     VectorConfig     `koanf:"vector"`
	Chat       ChatConfig       `koanf:"chat"`
	Vapi       VapiConfig       `koanf:"vapi"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host        string        `koanf:"host"         validate:"required"        env:"SERVER_HOST"`
	Port        int           `koanf:"port"         validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled bool          `koanf:"cors_enabled"                            env:"SERVER_CORS_ENABLED"`
	CORS        CORSConfig    `koanf:"cors"`
	Timeout     time.Duration `koanf:"timeout"                                 env:"SERVER_TIMEOUT"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// RuntimeConfig contains process level settings.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error disabled"  env:"RUNTIME_LOG_LEVEL"`
	LogJSON     bool   `koanf:"log_json"                                                     env:"RUNTIME_LOG_JSON"`
}

// OllamaConfig configures the local embedding and generation backend.
type OllamaConfig struct {
	BaseURL         string        `koanf:"base_url"          validate:"required,url"                 env:"OLLAMA_BASE_URL"`
	Provider        string        `koanf:"provider"          validate:"oneof=ollama langchain"       env:"OLLAMA_PROVIDER"`
	ChatModel       string        `koanf:"chat_model"        validate:"required"                     env:"OLLAMA_CHAT_MODEL"`
	EmbeddingModel  string        `koanf:"embedding_model"   validate:"required"                     env:"OLLAMA_EMBEDDING_MODEL"`
	Temperature     float64       `koanf:"temperature"       validate:"min=0,max=2"                  env:"OLLAMA_TEMPERATURE"`
	MaxTokens       int           `koanf:"max_tokens"        validate:"min=1"                        env:"OLLAMA_MAX_TOKENS"`
	EmbedTimeout    time.Duration `koanf:"embed_timeout"                                             env:"OLLAMA_EMBED_TIMEOUT"`
	GenerateTimeout time.Duration `koanf:"generate_timeout"                                          env:"OLLAMA_GENERATE_TIMEOUT"`
	Breaker         BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the generation backend.
type BreakerConfig struct {
	Enabled               bool          `koanf:"enabled"                  env:"OLLAMA_BREAKER_ENABLED"`
	ErrorPercentThreshold int           `koanf:"error_percent_threshold"  env:"OLLAMA_BREAKER_ERROR_PERCENT" validate:"min=0,max=100"`
	MinimumRequests       int           `koanf:"minimum_requests"         env:"OLLAMA_BREAKER_MIN_REQUESTS"  validate:"min=0"`
	OpenStateWait         time.Duration `koanf:"open_state_wait"          env:"OLLAMA_BREAKER_OPEN_WAIT"`
}

// KnowledgeConfig configures retrieval and population of the knowledge base.
type KnowledgeConfig struct {
	SimilarityThreshold float64       `koanf:"similarity_threshold" validate:"min=0,max=1" env:"KNOWLEDGE_SIMILARITY_THRESHOLD"`
	MatchCount          int           `koanf:"match_count"          validate:"min=0"       env:"KNOWLEDGE_MATCH_COUNT"`
	SearchTimeout       time.Duration `koanf:"search_timeout"                              env:"KNOWLEDGE_SEARCH_TIMEOUT"`
	EmbeddingCacheSize  int           `koanf:"embedding_cache_size" validate:"min=0"       env:"KNOWLEDGE_EMBEDDING_CACHE_SIZE"`
	PopulateConcurrency int           `koanf:"populate_concurrency" validate:"min=1"       env:"KNOWLEDGE_POPULATE_CONCURRENCY"`
	PopulateRetries     int           `koanf:"populate_retries"     validate:"min=0"       env:"KNOWLEDGE_POPULATE_RETRIES"`
	PopulateRetryBase   time.Duration `koanf:"populate_retry_base"                         env:"KNOWLEDGE_POPULATE_RETRY_BASE"`
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	Provider    string          `koanf:"provider"     validate:"oneof=memory pgvector qdrant supabase" env:"VECTOR_PROVIDER"`
	DSN         string          `koanf:"dsn"                                                           env:"VECTOR_DSN"`
	Table       string          `koanf:"table"        validate:"required"                              env:"VECTOR_TABLE"`
	Dimension   int             `koanf:"dimension"    validate:"min=1"                                 env:"VECTOR_DIMENSION"`
	EnsureIndex bool            `koanf:"ensure_index"                                                  env:"VECTOR_ENSURE_INDEX"`
	APIKey      SensitiveString `koanf:"api_key"                                                       env:"VECTOR_API_KEY"     sensitive:"true"`
	RPCFunction string          `koanf:"rpc_function"                                                  env:"VECTOR_RPC_FUNCTION"`
}

// ChatConfig bounds the conversation history forwarded to the model.
type ChatConfig struct {
	HistoryMaxMessages int    `koanf:"history_max_messages" validate:"min=0" env:"CHAT_HISTORY_MAX_MESSAGES"`
	HistoryMaxTokens   int    `koanf:"history_max_tokens"   validate:"min=0" env:"CHAT_HISTORY_MAX_TOKENS"`
	TokenEncoding      string `koanf:"token_encoding"                        env:"CHAT_TOKEN_ENCODING"`
}

// VapiConfig configures the outbound telephony provider.
type VapiConfig struct {
	BaseURL     string          `koanf:"base_url"     validate:"required,url" env:"VAPI_BASE_URL"`
	PrivateKey  SensitiveString `koanf:"private_key"                          env:"VAPI_PRIVATE_API_KEY"   sensitive:"true"`
	AssistantID string          `koanf:"assistant_id"                         env:"PUBLIC_VAPI_ASSISTANT_ID"`
	Timeout     time.Duration   `koanf:"timeout"                              env:"VAPI_TIMEOUT"`
}

// DatabaseConfig contains the Postgres connection used for lead capture.
type DatabaseConfig struct {
	ConnString SensitiveString `koanf:"conn_string" env:"DATABASE_URL" sensitive:"true"`
	MaxConns   int32           `koanf:"max_conns"   env:"DB_MAX_CONNS" validate:"min=0"`
}

// RedisConfig contains the Redis connection used by the rate limiter.
type RedisConfig struct {
	Addr     string          `koanf:"addr"     env:"REDIS_ADDR"`
	Password SensitiveString `koanf:"password" env:"REDIS_PASSWORD" sensitive:"true"`
	DB       int             `koanf:"db"       env:"REDIS_DB"       validate:"min=0"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled    bool                  `koanf:"enabled"     env:"RATELIMIT_ENABLED"`
	GlobalRate RateConfig            `koanf:"global_rate"`
	RouteRates map[string]RateConfig `koanf:"route_rates"`
	Prefix     string                `koanf:"prefix"      env:"RATELIMIT_PREFIX"`
	MaxRetry   int                   `koanf:"max_retry"   env:"RATELIMIT_MAX_RETRY"`
}

// RateConfig represents a single rate limit configuration.
type RateConfig struct {
	Limit  int64         `koanf:"limit"  env:"RATELIMIT_GLOBAL_LIMIT"`
	Period time.Duration `koanf:"period" env:"RATELIMIT_GLOBAL_PERIOD"`
}

// MonitoringConfig toggles the Prometheus exporter.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Watch(ctx context.Context, callback func()) error
	Type() SourceType
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Load loads configuration from defaults and the environment.
func Load() (*Config, error) {
	return NewService().Load(context.Background())
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5173,
			CORSEnabled: true,
			CORS: CORSConfig{
				AllowedOrigins:   []string{"http://localhost:5173"},
				AllowCredentials: false,
				MaxAge:           600,
			},
			Timeout: 90 * time.Second,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Ollama: OllamaConfig{
			BaseURL:         "http://localhost:11434",
			Provider:        "ollama",
			ChatModel:       "llama3.2:3b",
			EmbeddingModel:  "nomic-embed-text:latest",
			Temperature:     0.7,
			MaxTokens:       500,
			EmbedTimeout:    10 * time.Second,
			GenerateTimeout: 60 * time.Second,
			Breaker: BreakerConfig{
				Enabled:               true,
				ErrorPercentThreshold: 50,
				MinimumRequests:       5,
				OpenStateWait:         15 * time.Second,
			},
		},
		Knowledge: KnowledgeConfig{
			SimilarityThreshold: 0.7,
			MatchCount:          5,
			SearchTimeout:       10 * time.Second,
			EmbeddingCacheSize:  256,
			PopulateConcurrency: 1,
			PopulateRetries:     2,
			PopulateRetryBase:   250 * time.Millisecond,
		},
		Vector: VectorConfig{
			Provider:    "memory",
			Table:       "knowledge_base",
			Dimension:   768,
			RPCFunction: "search_knowledge_base",
		},
		Chat: ChatConfig{
			HistoryMaxMessages: 10,
			HistoryMaxTokens:   1024,
			TokenEncoding:      "cl100k_base",
		},
		Vapi: VapiConfig{
			BaseURL: "https://api.vapi.ai",
			Timeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns: 4,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			GlobalRate: RateConfig{
				Limit:  60,
				Period: time.Minute,
			},
			RouteRates: map[string]RateConfig{},
			Prefix:     "pharens:ratelimit:",
			MaxRetry:   3,
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}

// IsProduction reports whether the runtime environment is production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Runtime.Environment == "production"
}
