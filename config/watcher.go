package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/utils"
)

// DefaultReloadDelay coalesces the burst of events an editor produces when saving.
const DefaultReloadDelay = 250 * time.Millisecond

// A Watcher re-reads a config file whenever it changes on disk.
type Watcher interface {
	// Config delivers each valid config read after a change. Only the latest is buffered.
	Config() <-chan *Config
	Close() error
}

type fsConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	configs   chan *Config
	workers   utils.StoppableWorkers
}

// NewWatcher watches the config file at path. The directory is watched rather than the file so
// that editors replacing the file are still seen.
func NewWatcher(ctx context.Context, path string, delay time.Duration, logger logging.Logger) (Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create config watcher")
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		//nolint:errcheck
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "cannot watch %q", path)
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	w := &fsConfigWatcher{
		fsWatcher: fsWatcher,
		configs:   make(chan *Config, 1),
	}
	name := filepath.Clean(path)
	debounced := debounce.New(delay)
	w.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("config watcher error", "error", err)
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				debounced(func() {
					conf, err := Read(path)
					if err != nil {
						logger.Warnw("ignoring invalid config change", "path", path, "error", err)
						return
					}
					logger.Infow("config changed", "path", path)
					w.offer(ctx, conf)
				})
			}
		}
	})
	return w, nil
}

// offer replaces any undelivered config with conf.
func (w *fsConfigWatcher) offer(ctx context.Context, conf *Config) {
	if ctx.Err() != nil {
		return
	}
	select {
	case <-w.configs:
	default:
	}
	select {
	case w.configs <- conf:
	default:
	}
}

func (w *fsConfigWatcher) Config() <-chan *Config {
	return w.configs
}

func (w *fsConfigWatcher) Close() error {
	err := w.fsWatcher.Close()
	w.workers.Stop()
	return err
}
