package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	errMissingProvider  = errors.New("vector_db provider is required")
	errMissingDSN       = errors.New("vector_db dsn is required")
	errMissingAPIKey    = errors.New("vector_db api key is required")
	errInvalidDimension = errors.New("vector_db dimension must be greater than zero")
)

const defaultTable = "knowledge_base"

// New instantiates a vector store backed by the requested provider.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderMemory:
		return newMemoryStore(cfg), nil
	case ProviderPGVector:
		return newPGStore(ctx, cfg)
	case ProviderQdrant:
		return newQdrantStore(ctx, cfg)
	case ProviderSupabase:
		return newSupabaseStore(cfg), nil
	default:
		return nil, fmt.Errorf("vector_db %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("vector_db config is required")
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingProvider)
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	if strings.TrimSpace(cfg.Table) == "" {
		cfg.Table = defaultTable
	}
	switch cfg.Provider {
	case ProviderPGVector, ProviderQdrant:
		if cfg.DSN == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingDSN)
		}
	case ProviderSupabase:
		if cfg.DSN == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingDSN)
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingAPIKey)
		}
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("vector_db %q: %w", cfg.ID, errInvalidDimension)
	}
	return nil
}
