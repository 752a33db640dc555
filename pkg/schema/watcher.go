package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatcherOption customises a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits after the last event before
// reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook is called after every reload attempt with the new store or
// the load error. On error the previous store stays current.
func WithReloadHook(fn func(*Store, error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithLoadOptions forwards options to LoadFS.
func WithLoadOptions(opts ...Option) WatcherOption {
	return func(w *Watcher) {
		w.loadOpts = append(w.loadOpts, opts...)
	}
}

// Watcher keeps a Store in sync with a directory. Readers call Store and
// always see a complete snapshot; reloads swap the pointer atomically.
type Watcher struct {
	dir      string
	debounce time.Duration
	loadOpts []Option
	onReload func(*Store, error)
	logger   *zap.Logger

	current atomic.Pointer[Store]
	fsw     *fsnotify.Watcher

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewWatcher loads dir and starts watching it. The initial load must succeed.
func NewWatcher(dir string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.logger = newConfig(w.loadOpts).logger

	store, err := LoadFS(os.DirFS(dir), w.loadOpts...)
	if err != nil {
		return nil, err
	}
	w.current.Store(store)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("schema: watch %s: %w", dir, err)
	}
	if err := addTree(fsw, dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	go w.run()
	return w, nil
}

// Store returns the current snapshot.
func (w *Watcher) Store() *Store {
	return w.current.Load()
}

// Close stops watching. Pending events are discarded and no reload hook runs
// after Close returns.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("schema: change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("schema: watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			select {
			case <-w.stopCh:
				return
			default:
			}
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(w.fsw, event.Name); err != nil {
				w.logger.Warn("schema: watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return true
		}
	}
	return isDocumentFile(event.Name)
}

func (w *Watcher) reload() {
	store, err := LoadFS(os.DirFS(w.dir), w.loadOpts...)
	if err != nil {
		w.logger.Warn("schema: reload failed, keeping previous store", zap.String("dir", w.dir), zap.Error(err))
	} else {
		previous := w.current.Swap(store)
		w.logger.Info("schema: reloaded",
			zap.String("dir", w.dir),
			zap.Bool("changed", previous.Revision() != store.Revision()),
		)
	}
	if w.onReload != nil {
		w.onReload(store, err)
	}
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("schema: watch %s: %w", path, err)
		}
		return nil
	})
}
