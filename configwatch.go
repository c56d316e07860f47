package fluid

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period a ConfigWatcher waits after the last
// file event before reloading.
const DefaultDebounce = 200 * time.Millisecond

// ConfigWatcher reloads a TOML config file when it changes and delivers
// validated snapshots on Updates. Invalid files are logged and skipped.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	updates  chan *Config
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// WatchConfig starts watching path. The directory is watched rather than
// the file so that editors replacing the file by rename are still seen.
// A debounce of zero uses DefaultDebounce.
func WatchConfig(ctx context.Context, path string, debounce time.Duration) (*ConfigWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("fluid: watch config: %w", err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("fluid: watch config %s: %w", path, err)
	}
	abs = filepath.Join(dir, filepath.Base(abs))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fluid: watch config: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("fluid: watch config %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	cw := &ConfigWatcher{
		path:     abs,
		debounce: debounce,
		watcher:  w,
		updates:  make(chan *Config, 1),
		cancel:   cancel,
	}
	cw.wg.Add(1)
	go cw.loop(ctx)

	Logger().Info("fluid: watching config", "path", abs)
	return cw, nil
}

// Updates delivers each successfully reloaded config. Only the latest
// snapshot is buffered; a reader that falls behind skips stale ones.
func (cw *ConfigWatcher) Updates() <-chan *Config {
	return cw.updates
}

// Close stops the watcher. It is safe to call more than once.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		cw.cancel()
		err = cw.watcher.Close()
		cw.wg.Wait()
	})
	return err
}

func (cw *ConfigWatcher) loop(ctx context.Context) {
	defer cw.wg.Done()

	debounce := time.NewTimer(cw.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if cw.relevant(event) {
				Logger().Debug("fluid: config change", "file", event.Name, "op", event.Op.String())
				debounce.Reset(cw.debounce)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			Logger().Warn("fluid: config watcher error", "error", err)

		case <-debounce.C:
			cw.reload()

		case <-ctx.Done():
			return
		}
	}
}

// relevant reports whether event touches the watched file with a write
// or create (renames onto the path arrive as Create).
func (cw *ConfigWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(event.Name) == cw.path
}

func (cw *ConfigWatcher) reload() {
	cfg, err := LoadConfig(cw.path)
	if err != nil {
		Logger().Warn("fluid: config reload failed", "path", cw.path, "error", err)
		return
	}
	select {
	case <-cw.updates:
	default:
	}
	cw.updates <- cfg
	Logger().Info("fluid: config reloaded", "path", cw.path)
}
