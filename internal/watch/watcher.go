package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType is the kind of change observed.
type EventType int

const (
	EventCreated EventType = iota + 1
	EventModified
	EventDeleted
	EventRenamed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is a debounced change to one path.
type Event struct {
	Path string
	Type EventType
	Time time.Time
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Dir is watched recursively.
	Dir string

	// Ignore holds glob patterns matched against each path component below Dir.
	Ignore []string

	// Debounce is the quiet period per path before an event is emitted.
	Debounce time.Duration
}

// DefaultIgnore lists directories and editor files that never trigger a rebuild.
var DefaultIgnore = []string{".git", "node_modules", "dist", "__tests__", "*~", ".#*", "*.swp"}

// Watcher watches a source tree and emits debounced events.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}

	mu      sync.Mutex
	running bool

	pendingMu sync.Mutex
	pending   map[string]*time.Timer
}

// NewWatcher creates a watcher. Call Start to begin.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}
	return &Watcher{
		config:  config,
		watcher: fsWatcher,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start adds the tree and begins processing events until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.addRecursive(w.config.Dir); err != nil {
		return err
	}
	w.running = true
	go w.processEvents(ctx)
	return nil
}

// Stop releases the watcher. Pending events are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)

	w.pendingMu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	return w.watcher.Close()
}

// Events returns the debounced events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}

	var typ EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = EventCreated
		// new directories are not covered by the existing watches
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				select {
				case w.errors <- err:
				default:
				}
			}
		}
	case event.Has(fsnotify.Write):
		typ = EventModified
	case event.Has(fsnotify.Remove):
		typ = EventDeleted
	case event.Has(fsnotify.Rename):
		typ = EventRenamed
	default:
		return
	}

	w.debounce(Event{Path: event.Name, Type: typ, Time: time.Now()})
}

// debounce restarts the quiet period of event.Path.
func (w *Watcher) debounce(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, ok := w.pending[event.Path]; ok {
		timer.Stop()
	}
	w.pending[event.Path] = time.AfterFunc(w.config.Debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, event.Path)
		w.pendingMu.Unlock()

		select {
		case w.events <- event:
		default:
			// full; a rebuild is already queued
		}
	})
}

// ignored matches every path component below the watched dir against the ignore list.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.config.Dir, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		for _, pattern := range w.config.Ignore {
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}
