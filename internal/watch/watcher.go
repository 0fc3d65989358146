// Package watch is the background checkpoint scheduler: it observes the
// tracked configuration files and triggers a checkpoint when they change
// or on a periodic interval. Each trigger goes through a fresh gate
// invocation; the foreground session and this loop share nothing but the
// checkpoint store's append-only directory structure.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault coalesces bursts of writes (editors save several times)
// into a single checkpoint trigger.
const debounceDefault = 2 * time.Second

// pollDefault is the default polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// Trigger is invoked once per coalesced change burst with the paths that
// changed.
type Trigger func(changed []string)

// PathWatcher watches tracked files for modification using fsnotify.
// It watches the parent directories, since the tracked files themselves
// may be replaced by rename (the common editor and tool behavior).
type PathWatcher struct {
	paths    []string
	trigger  Trigger
	debounce time.Duration
}

// NewPathWatcher creates a watcher over the given files.
func NewPathWatcher(paths []string, trigger Trigger) *PathWatcher {
	return &PathWatcher{
		paths:    paths,
		trigger:  trigger,
		debounce: debounceDefault,
	}
}

// SetDebounce overrides the debounce interval.
func (w *PathWatcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches the tracked files. Blocks until ctx is cancelled.
func (w *PathWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	tracked := make(map[string]bool, len(w.paths))
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		tracked[p] = true
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		// A missing parent directory is skipped, not fatal: the tracked
		// file cannot change while its directory does not exist.
		if err := watcher.Add(dir); err != nil {
			continue
		}
	}

	// ready collects changed paths that passed debounce. A single timer
	// resets on each event; when it fires, all accumulated paths flush
	// into one trigger call.
	var mu sync.Mutex
	ready := make(map[string]bool)

	flush := func() {
		mu.Lock()
		batch := make([]string, 0, len(ready))
		for p := range ready {
			batch = append(batch, p)
		}
		ready = make(map[string]bool)
		mu.Unlock()

		if len(batch) > 0 {
			w.trigger(batch)
		}
	}

	// Single debounce timer, initialized as stopped; first event starts it.
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !tracked[event.Name] {
				continue
			}

			mu.Lock()
			ready[event.Name] = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err
		}
	}
}

// PollWatcher watches tracked files by comparing modification times.
// Used as a fallback when fsnotify is unavailable (e.g. NFS homes).
type PollWatcher struct {
	paths    []string
	trigger  Trigger
	interval time.Duration
	seen     map[string]time.Time
}

// NewPollWatcher creates a polling-based watcher.
func NewPollWatcher(paths []string, trigger Trigger, interval time.Duration) *PollWatcher {
	if interval == 0 {
		interval = pollDefault
	}
	return &PollWatcher{
		paths:    paths,
		trigger:  trigger,
		interval: interval,
		seen:     make(map[string]time.Time),
	}
}

// Run polls the tracked files. Blocks until ctx is cancelled.
func (w *PollWatcher) Run(ctx context.Context) error {
	// Prime mtimes so startup does not count as a change.
	w.scan(false)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan(true)
		}
	}
}

// scan checks mtimes and, when fire is set, triggers on changes.
func (w *PollWatcher) scan(fire bool) {
	var changed []string
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		prev, ok := w.seen[p]
		w.seen[p] = info.ModTime()
		if ok && fire && info.ModTime().After(prev) {
			changed = append(changed, p)
		}
	}
	if len(changed) > 0 {
		w.trigger(changed)
	}
}
