package config

import (
	"context"
	"sync"

	"github.com/pharens/pharens-ai/pkg/logger"
)

type ContextKey string

const ManagerCtxKey ContextKey = "config_manager"

var (
	fallbackManager     *Manager
	fallbackManagerOnce sync.Once
)

func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ManagerCtxKey, m)
}

// ManagerFromContext returns the manager stored in ctx or a process wide
// manager loaded from defaults and the environment.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, ok := ctx.Value(ManagerCtxKey).(*Manager); ok && m != nil {
			return m
		}
	}
	fallbackManagerOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		m := NewManager(NewService())
		if _, err := m.Load(ctx, NewDefaultProvider(), NewEnvProvider()); err != nil {
			logger.FromContext(ctx).Warn("failed to load default configuration", "error", err)
			m.current.Store(Default())
		}
		fallbackManager = m
	})
	return fallbackManager
}

// FromContext returns the active configuration for ctx.
func FromContext(ctx context.Context) *Config {
	return ManagerFromContext(ctx).Get()
}
