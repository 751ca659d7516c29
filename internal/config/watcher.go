package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeCallback receives the reloaded configuration.
type ChangeCallback func(cfg *Config)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Path     string
	Debounce time.Duration
	OnChange ChangeCallback
	Logger   zerolog.Logger
}

// Watcher reloads the config file when it changes and hands valid configs
// to OnChange. Invalid files are logged and skipped.
type Watcher struct {
	watcher  *fsnotify.Watcher
	loader   *Loader
	file     string
	debounce time.Duration
	onChange ChangeCallback
	logger   zerolog.Logger

	done     chan struct{}
	mu       sync.Mutex
	timer    *time.Timer
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher watches the directory holding cfg.Path so editors that replace
// the file by rename are still seen.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(cfg.Path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		loader:   NewLoader(cfg.Path),
		file:     filepath.Clean(cfg.Path),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   cfg.Logger.With().Str("component", "config-watcher").Logger(),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()

	w.logger.Debug().Str("path", w.file).Msg("Config watcher started")
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to reload config")
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn().Err(err).Msg("Reloaded config is invalid")
		return
	}
	w.logger.Info().Str("path", w.file).Msg("Config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
