package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// cliFlagPaths maps command line flag names to configuration paths.
var cliFlagPaths = map[string]string{
	"host":            "server.host",
	"port":            "server.port",
	"cors":            "server.cors_enabled",
	"log-level":       "runtime.log_level",
	"log-json":        "runtime.log_json",
	"ollama-url":      "ollama.base_url",
	"chat-model":      "ollama.chat_model",
	"embedding-model": "ollama.embedding_model",
	"vector-provider": "vector.provider",
	"vector-dsn":      "vector.dsn",
	"concurrency":     "knowledge.populate_concurrency",
	"metrics":         "monitoring.enabled",
	"rate-limit":      "ratelimit.enabled",
}

// CLIFlagPath returns the configuration path bound to a flag name.
func CLIFlagPath(flag string) (string, bool) {
	path, ok := cliFlagPaths[flag]
	return path, ok
}

// envProvider marks the environment layer; variables are read by the loader.
type envProvider struct{}

func NewEnvProvider() Source { return &envProvider{} }

func (e *envProvider) Load() (map[string]any, error) { return map[string]any{}, nil }
func (e *envProvider) Watch(_ context.Context, _ func()) error { return nil }
func (e *envProvider) Type() SourceType { return SourceEnv }
func (e *envProvider) Close() error { return nil }

type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider builds a source from changed command line flags.
// Unknown flag names are ignored.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{flags: flags}
}

func (c *cliProvider) Load() (map[string]any, error) {
	out := make(map[string]any)
	for name, value := range c.flags {
		path, ok := cliFlagPaths[name]
		if !ok {
			continue
		}
		if err := setNested(out, path, value); err != nil {
			return nil, fmt.Errorf("failed to set CLI flag %s: %w", name, err)
		}
	}
	return out, nil
}

func (c *cliProvider) Watch(_ context.Context, _ func()) error { return nil }
func (c *cliProvider) Type() SourceType { return SourceCLI }
func (c *cliProvider) Close() error { return nil }

func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i, part := range parts[:len(parts)-1] {
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

type yamlProvider struct {
	path      string
	mu        sync.Mutex
	watcher   *Watcher
	closeOnce sync.Once
}

// NewYAMLProvider reads configuration from a YAML file. A missing file
// yields an empty layer.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return dropNil(raw), nil
}

func dropNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
		case map[string]any:
			if nested := dropNil(val); len(nested) > 0 {
				out[k] = nested
			}
		default:
			out[k] = v
		}
	}
	return out
}

func (y *yamlProvider) Watch(ctx context.Context, callback func()) error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.watcher == nil {
		w, err := NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := w.Watch(ctx, y.path); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch YAML file: %w", err)
		}
		y.watcher = w
	}
	y.watcher.OnChange(callback)
	return nil
}

func (y *yamlProvider) Type() SourceType { return SourceYAML }

func (y *yamlProvider) Close() error {
	var err error
	y.closeOnce.Do(func() {
		y.mu.Lock()
		defer y.mu.Unlock()
		if y.watcher != nil {
			err = y.watcher.Close()
			y.watcher = nil
		}
	})
	return err
}

// defaultProvider marks the built-in defaults layer.
type defaultProvider struct{}

func NewDefaultProvider() Source { return &defaultProvider{} }

func (d *defaultProvider) Load() (map[string]any, error) { return map[string]any{}, nil }
func (d *defaultProvider) Watch(_ context.Context, _ func()) error { return nil }
func (d *defaultProvider) Type() SourceType { return SourceDefault }
func (d *defaultProvider) Close() error { return nil }
