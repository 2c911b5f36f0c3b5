package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher fires callbacks when a watched configuration file is written.
type Watcher struct {
	fs        *fsnotify.Watcher
	mu        sync.RWMutex
	callbacks []func()
	paths     map[string]context.Context
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func NewWatcher() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		fs:    fs,
		paths: make(map[string]context.Context),
		done:  make(chan struct{}),
	}, nil
}

// Watch adds path until ctx is canceled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := w.fs.Add(abs); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}
	w.mu.Lock()
	w.paths[abs] = ctx
	w.mu.Unlock()
	go func() {
		select {
		case <-ctx.Done():
		case <-w.done:
		}
		w.mu.Lock()
		delete(w.paths, abs)
		w.mu.Unlock()
		_ = w.fs.Remove(abs)
	}()
	w.startOnce.Do(func() { go w.loop() })
	return nil
}

func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.RLock()
			ctx, watched := w.paths[ev.Name]
			callbacks := append([]func(){}, w.callbacks...)
			w.mu.RUnlock()
			if !watched || ctx.Err() != nil {
				continue
			}
			for _, cb := range callbacks {
				if cb != nil {
					cb()
				}
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		if cerr := w.fs.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
	})
	return err
}
