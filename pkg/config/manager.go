package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pharens/pharens-ai/pkg/logger"
)

// Manager owns the active configuration and reloads it when a watched
// source changes.
type Manager struct {
	Service   Service
	current   atomic.Pointer[Config]
	sources   []Source
	callbacks []func(*Config)
	cbMu      sync.RWMutex
	reloadMu  sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	debounce  time.Duration
}

func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{Service: service, debounce: 100 * time.Millisecond}
}

// SetDebounce must be called before Load.
func (m *Manager) SetDebounce(d time.Duration) {
	m.debounce = d
}

func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.reloadMu.Unlock()
	m.apply(cfg)
	if m.cancel != nil {
		m.cancel()
	}
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.watch(watchCtx, sources)
	return cfg, nil
}

func (m *Manager) Get() *Config {
	return m.current.Load()
}

func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	cfg, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.apply(cfg)
	return nil
}

// OnChange registers a callback run after every effective change.
func (m *Manager) OnChange(callback func(*Config)) {
	m.cbMu.Lock()
	m.callbacks = append(m.callbacks, callback)
	m.cbMu.Unlock()
}

func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()
		m.reloadMu.Lock()
		sources := append([]Source(nil), m.sources...)
		m.reloadMu.Unlock()
		for _, src := range sources {
			if src == nil {
				continue
			}
			if err := src.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}

func (m *Manager) watch(ctx context.Context, sources []Source) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		m.wg.Add(1)
		go func(src Source) {
			defer m.wg.Done()
			err := src.Watch(ctx, func() {
				if m.debounce > 0 {
					time.Sleep(m.debounce)
				}
				if err := m.Reload(ctx); err != nil {
					logger.FromContext(ctx).Error("failed to reload configuration", "error", err)
				}
			})
			if err != nil {
				logger.FromContext(ctx).Debug("configuration source is not watchable", "source", src.Type(), "error", err)
			}
		}(src)
	}
}

func (m *Manager) apply(cfg *Config) {
	old := m.current.Swap(cfg)
	if old != nil && reflect.DeepEqual(old, cfg) {
		return
	}
	m.cbMu.RLock()
	callbacks := append([]func(*Config){}, m.callbacks...)
	m.cbMu.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(cfg)
		}
	}
}
