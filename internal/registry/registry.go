// Package registry tracks the icons known to a running build session.
//
// Watch and serve modes rescan sources after every rebuild and sync the
// results into an IconRegistry; interested parties subscribe to the change
// feed instead of rescanning themselves. The registry is a catalog, not a
// build input: pipelines always work from a fresh scan.
package registry

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/scanner"
)

// IconInfo holds the catalog entry for one icon.
type IconInfo struct {
	Name      string
	Path      string
	Codepoint rune
	Size      int64
	ModTime   time.Time
}

// EventType classifies a registry change.
type EventType int

const (
	EventAdded EventType = iota
	EventUpdated
	EventRemoved
)

func (e EventType) String() string {
	switch e {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// IconEvent describes one registry change.
type IconEvent struct {
	Type      EventType
	Icon      IconInfo
	Timestamp time.Time
}

// IconRegistry is a thread-safe icon catalog with a change feed.
type IconRegistry struct {
	mutex    sync.RWMutex
	icons    map[string]IconInfo
	watchers []chan IconEvent
}

// New creates an empty registry.
func New() *IconRegistry {
	return &IconRegistry{
		icons: make(map[string]IconInfo),
	}
}

// Register adds or updates an icon, emitting the matching event. Identical
// re-registrations are dropped without an event.
func (r *IconRegistry) Register(icon IconInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	prev, exists := r.icons[icon.Name]
	if exists && prev == icon {
		return
	}
	r.icons[icon.Name] = icon

	eventType := EventAdded
	if exists {
		eventType = EventUpdated
	}
	r.emit(IconEvent{Type: eventType, Icon: icon, Timestamp: time.Now()})
}

// Remove drops an icon by name, emitting a removed event when it existed.
func (r *IconRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	icon, exists := r.icons[name]
	if !exists {
		return
	}
	delete(r.icons, name)
	r.emit(IconEvent{Type: EventRemoved, Icon: icon, Timestamp: time.Now()})
}

// Get retrieves one icon by name.
func (r *IconRegistry) Get(name string) (IconInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	icon, ok := r.icons[name]
	return icon, ok
}

// All returns every icon sorted by name.
func (r *IconRegistry) All() []IconInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]IconInfo, 0, len(r.icons))
	for _, icon := range r.icons {
		out = append(out, icon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of cataloged icons.
func (r *IconRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.icons)
}

// Watch subscribes to the change feed. The channel is buffered; events are
// dropped rather than blocking a registry operation on a slow subscriber.
func (r *IconRegistry) Watch() <-chan IconEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan IconEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// Unwatch removes a subscription and closes its channel.
func (r *IconRegistry) Unwatch(ch <-chan IconEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Sync reconciles the catalog against a fresh scan and the codepoint mapping
// of the build it fed, emitting added, updated, and removed events for the
// difference. It returns the change counts.
func (r *IconRegistry) Sync(sources []scanner.IconSource, mapping map[string]rune) (added, updated, removed int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		seen[src.Name] = true

		icon := IconInfo{
			Name:      src.Name,
			Path:      src.Path,
			Codepoint: mapping[src.Name],
		}
		if info, err := os.Stat(src.Path); err == nil {
			icon.Size = info.Size()
			icon.ModTime = info.ModTime()
		}

		prev, exists := r.icons[src.Name]
		if exists && prev == icon {
			continue
		}
		r.icons[src.Name] = icon
		if exists {
			updated++
			r.emit(IconEvent{Type: EventUpdated, Icon: icon, Timestamp: time.Now()})
		} else {
			added++
			r.emit(IconEvent{Type: EventAdded, Icon: icon, Timestamp: time.Now()})
		}
	}

	for name, icon := range r.icons {
		if seen[name] {
			continue
		}
		delete(r.icons, name)
		removed++
		r.emit(IconEvent{Type: EventRemoved, Icon: icon, Timestamp: time.Now()})
	}
	return added, updated, removed
}

// emit fans an event out to every subscriber without blocking. Callers hold
// the registry mutex.
func (r *IconRegistry) emit(event IconEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Slow subscriber; drop rather than stall the registry.
		}
	}
}
