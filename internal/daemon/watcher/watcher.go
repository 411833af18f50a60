// Package watcher handles file system watching for the daemon.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/config"
)

// DebounceInterval coalesces bursts of events on the same path.
const DebounceInterval = 100 * time.Millisecond

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventTrackRootChanged EventType = iota
)

// Event represents a file system change event.
type Event struct {
	Type      EventType
	TrackRoot string
	Path      string
}

// Watcher watches settings.yaml and reports track root changes.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	settingsPath string
	eventsChan   chan Event
	done         chan struct{}
	stopOnce     sync.Once
	logger       zerolog.Logger

	mu       sync.Mutex
	lastRoot string

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher for settingsPath. currentRoot is the track root the
// daemon started with; only changes away from it are reported.
func New(settingsPath, currentRoot string, logger zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:    fsWatcher,
		settingsPath: filepath.Clean(settingsPath),
		eventsChan:   make(chan Event, 16),
		done:         make(chan struct{}),
		logger:       logger,
		lastRoot:     currentRoot,
		debounce:     make(map[string]*time.Timer),
	}

	return w, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts the watcher. The settings directory is watched rather than
// the file itself so atomic replace-by-rename writes are seen.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.settingsPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.logger.Info().Str("path", w.settingsPath).Msg("Watching settings")

	go w.processEvents()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
	})
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.settingsPath {
		return
	}
	// Rename covers editors and SaveYAML, which write a temp file and move it
	// over the target.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug().Str("op", event.Op.String()).Str("path", event.Name).Msg("fsnotify")
	w.debounceEvent(event.Name, func() {
		w.processSettingsChange(event.Name)
	})
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(DebounceInterval, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

// processSettingsChange reloads settings and emits an event if the
// effective track root moved.
func (w *Watcher) processSettingsChange(path string) {
	if !config.FileExists(path) {
		return
	}

	settings, err := config.LoadSettingsFile(path)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Ignoring unreadable settings")
		return
	}
	root, err := config.ResolveTrackRoot(settings)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Ignoring unresolvable track root")
		return
	}

	w.mu.Lock()
	changed := root != w.lastRoot
	w.lastRoot = root
	w.mu.Unlock()
	if !changed {
		return
	}

	select {
	case w.eventsChan <- Event{Type: EventTrackRootChanged, TrackRoot: root, Path: path}:
	case <-w.done:
	}
}
