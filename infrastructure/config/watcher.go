package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads configuration when the YAML overlay file changes and hands
// the new Config to the registered callback. A reload that fails validation
// is logged and discarded, keeping the last good config in effect.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   *zap.Logger
}

// NewWatcher creates a watcher for the given config file
func NewWatcher(path string, onChange func(*Config), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
	}
}

// Run watches the file until the context is cancelled. Editors often replace
// the file rather than write in place, so rename and create events count as
// changes and the path is re-added after each one.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer notifier.Close()

	if err := notifier.Add(w.path); err != nil {
		return err
	}

	// Debounce bursts of events from a single save
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Rename != 0 {
				_ = notifier.Add(w.path)
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			w.reload()

		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig()
	if err != nil {
		w.logger.Error("config reload failed, keeping previous config",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	w.onChange(cfg)
}
