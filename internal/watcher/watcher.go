// Package watcher watches a scenario file and reports debounced changes.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/signals/internal/log"
	"github.com/zjrosen/signals/signal"
)

// Change describes a debounced modification of the watched file.
type Change struct {
	Path   string
	Events int // raw fsnotify events coalesced into this change
	At     time.Time
}

// ErrStarted is returned when listeners are added or Start is called after
// the watcher has started.
var ErrStarted = errors.New("watcher already started")

// Watcher monitors a single file and dispatches a Change after writes settle.
//
// Listeners are called on the watcher's goroutine, so they must be added
// before Start. Use relay to hand changes to another goroutine.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	changes   signal.Registry[Change] // owned by loop after Start
	started   bool
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Config holds watcher configuration options.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a new file watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		path:      filepath.Clean(cfg.Path),
		debounce:  cfg.DebounceDur,
		done:      make(chan struct{}),
	}, nil
}

// OnChange registers fn to be called for every debounced change.
func (w *Watcher) OnChange(fn signal.Func[Change]) (signal.ListenerID, error) {
	if w.started {
		return 0, ErrStarted
	}
	return w.changes.Add(fn), nil
}

// Start begins watching. The directory is watched rather than the file so
// that editors which replace the file on save are still observed.
func (w *Watcher) Start() error {
	if w.started {
		return ErrStarted
	}
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	w.started = true

	log.Debug(log.CatWatch, "Watching", "path", w.path, "debounce", w.debounce, "listeners", w.changes.Len())

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates the watcher, waits for the loop to exit and releases
// resources. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if pending == 0 {
				continue
			}
			change := Change{Path: w.path, Events: pending, At: time.Now()}
			pending = 0
			log.Debug(log.CatWatch, "File changed", "path", change.Path, "events", change.Events)
			w.changes.Dispatch(change)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatch, "Watcher error", err, "path", w.path)

		case <-w.done:
			return
		}
	}
}

// isRelevantEvent reports whether the event touches the watched file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Write for in-place saves, Create for write-then-rename saves
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}
