package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-applies a seed file to a registry whenever the file changes.
// Removing an entry from the file does not deregister it.
type Watcher struct {
	path     string
	registry *Registry
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// that editors replacing the file via rename are picked up.
func NewWatcher(path string, reg *Registry, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve seed file path: %w", err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch seed file directory: %w", err)
	}

	return &Watcher{
		path:     abs,
		registry: reg,
		watcher:  fw,
		debounce: 100 * time.Millisecond,
		logger:   logger,
	}, nil
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.logger.Info("registry seed watcher started", zap.String("path", w.path))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("registry seed watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("registry seed watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	seed, err := LoadSeedFile(w.path)
	if err != nil {
		w.logger.Error("registry seed reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.registry.Apply(seed)
	w.logger.Info("registry seed reloaded",
		zap.String("path", w.path),
		zap.Int("services", len(seed)),
	)
}
