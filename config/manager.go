package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/debounce"
)

const reloadDebounce = 100 * time.Millisecond

// Manager hot reloads a YAML config file into a Store.
type Manager struct {
	store    *Store
	path     string
	onReload func(Config)

	// overlay is layered over the file on every reload
	overlay Overrides
}

// NewManager returns a manager for the config file at path. onReload,
// if set, is called with the new Config after each successful reload.
func NewManager(store *Store, path string, onReload func(Config)) *Manager {
	return &Manager{store: store, path: path, onReload: onReload}
}

// WithOverlay sets overrides, typically from command line flags, that
// take precedence over the file.
func (m *Manager) WithOverlay(o Overrides) *Manager {
	m.overlay = o
	return m
}

// Run watches the config file until ctx is done. Reload failures are
// logged and the previous configuration stays in effect.
func (m *Manager) Run(ctx context.Context, promreg prometheus.Registerer) error {
	log := logger.FromContext(ctx).WithGroup("config-manager")

	if promreg != nil {
		promGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "roast_config_messages",
			Help: "Number of messages in the live message pool",
		}, func() float64 {
			return float64(len(m.store.Config().Messages))
		})
		if err := promreg.Register(promGauge); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}

	configDir, configFileName := filepath.Dir(m.path), filepath.Base(m.path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	err = watcher.Add(configDir)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "watching config file directory for changes", "dir", configDir, "file", configFileName)

	reload := debounce.New(reloadDebounce, func() {
		log.DebugContext(ctx, "debounce timer fired, reloading")
		m.reload(ctx)
	})
	defer reload.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				log.WarnContext(ctx, "file watcher events channel closed")
				return nil
			}
			// editors save with Create+Rename as often as with Write
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.DebugContext(ctx, "config file changed", "event", event.String())
			reload.Trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				log.WarnContext(ctx, "file watcher error channel closed")
				return nil
			}
			log.WarnContext(ctx, "file watcher error", "err", err)

		case <-ctx.Done():
			log.InfoContext(ctx, "config manager shutting down")
			return nil
		}
	}
}

// Reload reads the config file once and applies it.
func (m *Manager) Reload(ctx context.Context) error {
	o, err := LoadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		o, err = Overrides{}, nil
	}
	if err != nil {
		return err
	}

	cfg, err := m.store.Reconfigure(o.Layer(m.overlay))
	if err != nil {
		return err
	}

	if m.onReload != nil {
		m.onReload(cfg)
	}
	return nil
}

func (m *Manager) reload(ctx context.Context) {
	log := logger.FromContext(ctx).WithGroup("config-manager")

	if err := m.Reload(ctx); err != nil {
		log.WarnContext(ctx, "failed to reload config, keeping previous", "path", m.path, "err", err)
		return
	}
	log.InfoContext(ctx, "config reloaded", "path", m.path)
}
