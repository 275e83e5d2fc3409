package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// DefaultReloadInterval is the minimum time between two reloads.
var DefaultReloadInterval = rate.Every(500 * time.Millisecond)

// WatchOptions configures Watch.
type WatchOptions struct {
	// ReloadLimit bounds how often the file is re-read (default: 2 per second)
	ReloadLimit rate.Limit

	// Logger receives reload failures (default: slog.Default())
	Logger *slog.Logger
}

// Watch reloads the configuration at path whenever it changes and passes every
// valid result to onChange. Invalid files are logged and skipped. Watch blocks
// until ctx is cancelled.
func Watch(ctx context.Context, path string, opts WatchOptions, onChange func(*Config)) (err error) {
	if opts.ReloadLimit == 0 {
		opts.ReloadLimit = DefaultReloadInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Editors replace the file on save, so watch the directory.
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	limiter := rate.NewLimiter(opts.ReloadLimit, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}

			cfg, err := Load(path)
			if err != nil {
				opts.Logger.Warn("Config reload failed", "path", path, "error", err)
				continue
			}
			opts.Logger.Info("Config reloaded", "path", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn("Config watcher error", "error", err)
		}
	}
}
