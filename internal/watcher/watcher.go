// Package watcher turns raw filesystem notifications into debounced icon
// change batches.
//
// Watch and serve modes register the icon source directories, and the
// watcher groups the editor noise (temp files, multiple writes per save)
// into one batch per quiet period so a rebuild runs once per logical change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
)

// DefaultDebounce is the quiet period used when none is configured. Editors
// commonly write a save as several events within a few milliseconds.
const DefaultDebounce = 300 * time.Millisecond

// EventType classifies a file change.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
	EventRenamed
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	}
	return "unknown"
}

// ChangeEvent is one debounced file change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// FileFilter reports whether a path is interesting. All registered filters
// must accept a path for it to produce events.
type FileFilter func(path string) bool

// ChangeHandler receives one debounced batch. Handler errors are logged and
// never stop the watcher.
type ChangeHandler func(events []ChangeEvent) error

// FileWatcher watches icon directories and delivers debounced change
// batches to its handlers.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	logger    logging.Logger

	mutex    sync.RWMutex
	filters  []FileFilter
	handlers []ChangeHandler
}

// New creates a watcher with the given quiet period. Non-positive delays
// select DefaultDebounce; a nil logger discards diagnostics.
func New(debounce time.Duration, logger logging.Logger) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	return &FileWatcher{
		watcher: fsw,
		logger:  logger.WithComponent("watcher"),
		debouncer: &debouncer{
			delay:  debounce,
			events: make(chan ChangeEvent, 100),
			output: make(chan []ChangeEvent, 10),
		},
	}, nil
}

// AddFilter appends a path filter. Filters added after Start still apply to
// later events.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler appends a batch handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches one directory, non-recursively.
func (fw *FileWatcher) AddPath(path string) error {
	if err := fw.watcher.Add(filepath.Clean(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	return nil
}

// AddRecursive watches root and every directory below it.
func (fw *FileWatcher) AddRecursive(root string) error {
	return filepath.WalkDir(filepath.Clean(root), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Start launches the watch loops. They run until ctx is cancelled; Stop
// releases the filesystem watcher itself.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.run(ctx)
	go fw.deliverLoop(ctx)
	go fw.watchLoop(ctx)
}

// Stop closes the underlying filesystem watcher and halts the debounce
// timer. Events already debounced but not yet delivered are dropped.
func (fw *FileWatcher) Stop() error {
	fw.debouncer.stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "filesystem watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{Path: event.Name}
	switch {
	case event.Op.Has(fsnotify.Create):
		change.Type = EventCreated
	case event.Op.Has(fsnotify.Write):
		change.Type = EventModified
	case event.Op.Has(fsnotify.Remove):
		change.Type = EventDeleted
	case event.Op.Has(fsnotify.Rename):
		change.Type = EventRenamed
	default:
		change.Type = EventModified
	}

	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	select {
	case fw.debouncer.events <- change:
	default:
		fw.logger.Warn(ctx, nil, "event buffer full, dropping change", "path", event.Name)
	}
}

func (fw *FileWatcher) deliverLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					fw.logger.Warn(ctx, err, "change handler failed", "events", len(events))
				}
			}
		}
	}
}

// debouncer groups rapid changes into one batch per quiet period,
// deduplicated by path with the latest event winning.
type debouncer struct {
	delay  time.Duration
	events chan ChangeEvent
	output chan []ChangeEvent

	mutex   sync.Mutex
	timer   *time.Timer
	pending []ChangeEvent
}

func (d *debouncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.add(event)
		}
	}
}

func (d *debouncer) add(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	byPath := make(map[string]ChangeEvent, len(d.pending))
	order := make([]string, 0, len(d.pending))
	for _, event := range d.pending {
		if _, seen := byPath[event.Path]; !seen {
			order = append(order, event.Path)
		}
		byPath[event.Path] = event
	}
	events := make([]ChangeEvent, 0, len(byPath))
	for _, path := range order {
		events = append(events, byPath[path])
	}

	select {
	case d.output <- events:
	default:
		// Delivery backlog; drop the batch rather than block the timer.
	}
	d.pending = d.pending[:0]
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// SVGFilter accepts .svg files, matching the scanner's case-insensitive
// extension rule.
func SVGFilter(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".svg")
}

// NoHiddenFilter rejects dotfiles, which editors use for swap and lock
// files.
func NoHiddenFilter(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}

// ExcludeDirFilter rejects paths inside dir, keeping generated output from
// retriggering the build that wrote it.
func ExcludeDirFilter(dir string) FileFilter {
	clean := filepath.Clean(dir)
	prefix := clean + string(filepath.Separator)
	return func(path string) bool {
		path = filepath.Clean(path)
		return path != clean && !strings.HasPrefix(path, prefix)
	}
}
