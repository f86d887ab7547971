// Package override implements the cooperative cancellation signal for
// in-progress zone runs. The manual_override flag in the shared config
// document is the only channel between the companion process and this
// engine, so the signal re-reads the document from disk on every check.
// A filesystem watch wakes the poll early when the document changes;
// the fixed poll tick is the fallback and bounds cancellation latency.
package override

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/greenside-labs/irrigator/internal/store"
)

// DefaultInterval is the poll cadence the companion process relies on.
const DefaultInterval = 1 * time.Second

type Watcher struct {
	store    *store.Store
	interval time.Duration
}

func NewWatcher(s *store.Store) *Watcher {
	return &Watcher{store: s, interval: DefaultInterval}
}

// NewWatcherInterval builds a watcher with a custom poll interval.
func NewWatcherInterval(s *store.Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{store: s, interval: interval}
}

// Engaged re-reads the full document and reports the override flag.
// Read errors count as "not engaged"; a transiently unreadable file
// must not abort a run on its own.
func (w *Watcher) Engaged() bool {
	doc, err := w.store.Load()
	if err != nil {
		return false
	}
	return doc.Controls.ManualOverride
}

// Wait blocks until d has elapsed or the override flag is observed
// true, whichever comes first. It reports true when cut short by the
// override. The flag is checked once up front, then on every poll tick
// and on every change event for the document file.
func (w *Watcher) Wait(ctx context.Context, d time.Duration) bool {
	if w.Engaged() {
		return true
	}

	deadline := time.NewTimer(d)
	defer deadline.Stop()
	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	var events chan fsnotify.Event
	if fw, err := fsnotify.NewWatcher(); err == nil {
		if err := fw.Add(w.store.Path()); err == nil {
			events = fw.Events
			go func() {
				for range fw.Errors {
				}
			}()
		}
		defer fw.Close()
	}

	for {
		select {
		case <-ctx.Done():
			return w.Engaged()
		case <-deadline.C:
			return false
		case <-tick.C:
			if w.Engaged() {
				return true
			}
		case ev := <-events:
			// Some writers replace the file instead of writing in
			// place; either way re-check immediately.
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && w.Engaged() {
				return true
			}
		}
	}
}
