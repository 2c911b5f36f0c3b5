package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Metadata records where each configuration key came from.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

type loader struct {
	k        *koanf.Koanf
	validate *validator.Validate
	meta     Metadata
	metaMu   sync.RWMutex
	loadMu   sync.Mutex
}

// NewService creates a configuration service backed by koanf.
func NewService() Service {
	return &loader{
		k:        koanf.New("."),
		validate: validator.New(),
		meta:     Metadata{Sources: make(map[string]SourceType)},
	}
}

// Load merges defaults, the given sources and the environment, in that order
// of increasing precedence, then decodes and validates the result.
func (l *loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	l.k = koanf.New(".")
	l.metaMu.Lock()
	l.meta = Metadata{Sources: make(map[string]SourceType), LoadedAt: time.Now()}
	l.metaMu.Unlock()

	if err := l.k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	for _, key := range l.k.Keys() {
		l.track(key, SourceDefault)
	}
	var cliSources []Source
	for _, src := range sources {
		if src == nil {
			continue
		}
		switch src.Type() {
		case SourceEnv, SourceDefault:
			continue
		case SourceCLI:
			cliSources = append(cliSources, src)
			continue
		}
		if err := l.merge(src); err != nil {
			return nil, err
		}
	}
	if err := l.loadEnv(); err != nil {
		return nil, err
	}
	for _, src := range cliSources {
		if err := l.merge(src); err != nil {
			return nil, err
		}
	}
	return l.decode()
}

func (l *loader) merge(src Source) error {
	data, err := src.Load()
	if err != nil {
		return fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
	}
	for key, value := range flattenMap("", data) {
		if err := l.k.Set(key, value); err != nil {
			return fmt.Errorf("failed to set %s from source %s: %w", key, src.Type(), err)
		}
		l.track(key, src.Type())
	}
	return nil
}

// loadEnv only honors variables declared through env struct tags.
func (l *loader) loadEnv() error {
	mapping := GenerateEnvToConfigMap()
	provider := env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			path, ok := mapping[key]
			if !ok {
				return "", nil
			}
			return path, value
		},
	})
	envK := koanf.New(".")
	if err := envK.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	for _, key := range envK.Keys() {
		if err := l.k.Set(key, envK.Get(key)); err != nil {
			return fmt.Errorf("failed to set %s from environment: %w", key, err)
		}
		l.track(key, SourceEnv)
	}
	return nil
}

func (l *loader) decode() (*Config, error) {
	var cfg Config
	err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				sensitiveStringDecodeHook,
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (l *loader) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := l.validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCustom(cfg)
}

// GetSource reports which source last set key.
func (l *loader) GetSource(key string) SourceType {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()
	if src, ok := l.meta.Sources[key]; ok {
		return src
	}
	return SourceDefault
}

func (l *loader) track(key string, src SourceType) {
	l.metaMu.Lock()
	l.meta.Sources[key] = src
	l.metaMu.Unlock()
}

func validateCustom(cfg *Config) error {
	switch cfg.Vector.Provider {
	case "pgvector", "qdrant":
		if strings.TrimSpace(cfg.Vector.DSN) == "" {
			return fmt.Errorf("vector.dsn is required for provider %q", cfg.Vector.Provider)
		}
	case "supabase":
		if strings.TrimSpace(cfg.Vector.DSN) == "" {
			return errors.New("vector.dsn must hold the supabase project url")
		}
		if cfg.Vector.APIKey.Value() == "" {
			return errors.New("vector.api_key is required for provider \"supabase\"")
		}
	}
	if cfg.Knowledge.MatchCount > 0 && cfg.Knowledge.SimilarityThreshold > 1 {
		return errors.New("knowledge.similarity_threshold must be within [0,1]")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.GlobalRate.Period <= 0 {
		return errors.New("ratelimit.global_rate.period must be positive when rate limiting is enabled")
	}
	if cfg.Monitoring.Enabled {
		path := cfg.Monitoring.Path
		if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "/api/") || strings.Contains(path, "?") {
			return fmt.Errorf("monitoring.path %q must start with / and stay outside /api/", path)
		}
	}
	return nil
}

// flattenMap turns nested maps into dot separated keys.
func flattenMap(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for fk, fv := range flattenMap(key, nested) {
				out[fk] = fv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	}
	return data, nil
}
