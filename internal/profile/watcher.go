package profile

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/gamebridge/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce absorbs the write/rename bursts editors and the
// atomic Save produce for a single logical change.
const defaultDebounce = 200 * time.Millisecond

// Watcher reloads the store when its backing file changes on disk,
// e.g. after the settings process saves. The directory is watched
// rather than the file so atomic replaces keep being observed.
type Watcher struct {
	store    *Store
	fsw      *fsnotify.Watcher
	log      *logging.Logger
	debounce time.Duration
	onReload func(skipped int)

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook sets a callback invoked after each reload.
func WithReloadHook(fn func(skipped int)) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onReload = fn
		}
	}
}

// NewWatcher starts watching the store's backing file.
func NewWatcher(store *Store, log *logging.Logger, opts ...WatcherOption) (*Watcher, error) {
	if log == nil {
		log = logging.Null
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(store.Path())); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(store.Path()), err)
	}

	w := &Watcher{
		store:    store,
		fsw:      fsw,
		log:      log.WithComponent("profile-watch"),
		debounce: defaultDebounce,
		onReload: func(int) {},
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for the loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// loop debounces file events into reloads.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.store.Path()) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			skipped, err := w.store.Load()
			if err != nil {
				w.log.Error("reloading profiles: %v", err)
				continue
			}
			w.onReload(skipped)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watching profiles: %v", err)
		}
	}
}
