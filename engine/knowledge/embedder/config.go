package embedder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider selects the client used to reach the embedding model.
type Provider string

const (
	// ProviderOllama talks to Ollama's /api/embeddings endpoint directly.
	ProviderOllama Provider = "ollama"
	// ProviderLangchain goes through langchaingo's Ollama LLM client.
	ProviderLangchain Provider = "langchain"
)

const (
	DefaultModel     = "nomic-embed-text:latest"
	DefaultDimension = 768
	DefaultTimeout   = 10 * time.Second
)

// Config describes an embedding backend.
type Config struct {
	ID            string
	Provider      Provider
	BaseURL       string
	Model         string
	Dimension     int
	BatchSize     int
	StripNewLines bool
	Timeout       time.Duration
	CacheSize     int
}

var (
	errMissingID        = errors.New("embedder id is required")
	errMissingProvider  = errors.New("embedder provider is required")
	errMissingModel     = errors.New("embedder model is required")
	errMissingBaseURL   = errors.New("embedder base url is required")
	errInvalidDimension = errors.New("embedder dimension must not be negative")
	errInvalidBatchSize = errors.New("embedder batch size must be greater than zero")
)

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingProvider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingModel)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingBaseURL)
	}
	if cfg.Dimension < 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidDimension)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidBatchSize)
	}
	return nil
}
