package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const debounceDelay = 200 * time.Millisecond

// Watcher reloads a config file whenever it changes
type Watcher struct {
	path      string
	fsWatcher *fsnotify.Watcher
	onChange  func(Config)
	delay     time.Duration

	mutex sync.Mutex
	timer *time.Timer
}

// NewWatcher watches path, handing every valid reload to onChange
func NewWatcher(path string, onChange func(Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "fsnotify")
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrap(err, "watch config")
	}
	return &Watcher{path: path, fsWatcher: fsw, onChange: onChange, delay: debounceDelay}, nil
}

// Run blocks until ctx is done. Invalid files are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	defer w.fsWatcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mutex.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mutex.Unlock()
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("config change detected")
			w.debounce(logger)
			// editors replace the file on save
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				time.Sleep(50 * time.Millisecond)
				_ = w.fsWatcher.Add(w.path)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

func (w *Watcher) debounce(logger *zerolog.Logger) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		cfg, err := Load(w.path)
		if err != nil {
			logger.Warn().Err(err).Str("file", w.path).Msg("ignoring invalid config")
			return
		}
		logger.Info().Str("file", w.path).Msg("config reloaded")
		w.onChange(cfg)
	})
}
