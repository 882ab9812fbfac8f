package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/tabdb/pkg/core"
)

// debounceDelay groups bursts of file events into one notification.
const debounceDelay = 100 * time.Millisecond

// watchRoot watches the storage root and every database directory in it.
// Removing or renaming a database directory clears the engine session if
// that database is selected; table file changes not caused by a command
// are announced on the notifier.
func (s *Server) watchRoot(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	root := s.engine.Layout().Root()
	if err := watcher.Add(root); err != nil {
		s.logger.Error("failed to watch storage root", "root", root, "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}
	names, err := s.engine.Layout().ListDatabases()
	if err != nil {
		s.logger.Warn("failed to list databases for watching", "error", err)
	}
	for _, name := range names {
		if err := watcher.Add(filepath.Join(root, name)); err != nil {
			s.logger.Warn("failed to watch database", "database", name, "error", err)
		}
	}
	s.logger.Debug("watching storage root", "root", root, "databases", len(names))

	d := newDebouncer(debounceDelay)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleFSEvent(watcher, root, event, d)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *Server) handleFSEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event, d *debouncer) {
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	database := parts[0]
	if !core.ValidObjectName(database) {
		return
	}

	if len(parts) == 1 {
		switch {
		case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
			_ = watcher.Remove(event.Name)
			if s.engine.ForgetDatabase(database) {
				s.logger.Warn("selected database was removed", "database", database)
			}
			s.notifier.Broadcast(Event{Kind: EventRemoved, Database: database, Time: time.Now()})
		case event.Has(fsnotify.Create):
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := watcher.Add(event.Name); err != nil {
					s.logger.Warn("failed to watch database", "database", database, "error", err)
				}
			}
		}
		return
	}

	if filepath.Ext(event.Name) != core.TableFileExt {
		return
	}
	d.trigger(database, func() {
		if s.wroteRecently(database) {
			return
		}
		s.logger.Debug("table files changed", "database", database)
		s.notifier.Broadcast(Event{Kind: EventFiles, Database: database, Time: time.Now()})
	})
}

// debouncer runs the last function triggered for a key once no further
// trigger arrived for the delay.
type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers {
		t.Stop()
	}
}
