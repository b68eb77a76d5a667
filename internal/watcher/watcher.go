package watcher

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events a single pip run produces.
const DefaultDebounce = 750 * time.Millisecond

// Watcher reports that the watched site directories changed. Bursts of
// filesystem events collapse into one notification per quiet period.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	changes  chan struct{}
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New watches dirs (non-recursively; installs and removals touch the top level).
func New(dirs []string, debounce time.Duration) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	return &Watcher{
		fs:       fw,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// Changes fires once per settled burst of events. It is never closed.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Start begins forwarding events.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
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
		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Stop halts the watcher and releases the underlying handles.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}
