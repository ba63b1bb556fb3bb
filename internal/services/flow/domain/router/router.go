// Package router connects navigation events to a route history.
package router

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/task"
	"go.einride.tech/aip/resourcename"
)

// ErrPathRequired indicates a navigation to an empty path.
var ErrPathRequired = errors.New("navigation path is required")

const maxHistory = 50

// Location is the payload of a navigation event.
type Location struct {
	Path string `json:"path"`
}

// Push builds a navigation event to path.
func Push(path string) event.Event {
	return event.New(event.TypeNavigate, Location{Path: path})
}

// PathOf returns the destination of a navigation event.
func PathOf(evt event.Event) (string, bool) {
	if evt.Type != event.TypeNavigate {
		return "", false
	}
	switch loc := evt.Payload.(type) {
	case Location:
		return loc.Path, true
	case *Location:
		if loc != nil {
			return loc.Path, true
		}
	case string:
		return loc, true
	}
	return "", false
}

// Path expands a resource name pattern such as "users/{user}" and returns
// it as an absolute route.
func Path(pattern string, variables ...string) string {
	name := resourcename.Sprint(pattern, variables...)
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

// State is the routing slice of application state.
type State struct {
	Location string   `json:"location"`
	History  []string `json:"history,omitempty"`
}

// Reduce records navigation events. The history keeps the most recent
// locations only.
func Reduce(state State, evt event.Event) State {
	path, ok := PathOf(evt)
	if !ok || path == "" {
		return state
	}
	history := make([]string, 0, len(state.History)+1)
	history = append(history, state.History...)
	history = append(history, path)
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	return State{Location: path, History: history}
}

// History performs route changes.
type History interface {
	Push(path string) error
}

// MemoryHistory is an in-process History.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
}

// NewMemoryHistory creates an empty history starting at start.
func NewMemoryHistory(start string) *MemoryHistory {
	h := &MemoryHistory{}
	if start != "" {
		h.entries = append(h.entries, start)
	}
	return h
}

// Push appends path to the history.
func (h *MemoryHistory) Push(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathRequired
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, path)
	return nil
}

// Location returns the current path.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns every path visited, oldest first.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Listener applies navigation events to history.
func Listener(history History, logf func(string, ...any)) task.Listener {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return task.Listener{
		Name:  "router.history",
		Match: event.OfType(event.TypeNavigate),
		Handle: func(_ context.Context, evt event.Event, _ task.Runtime) {
			path, ok := PathOf(evt)
			if !ok {
				logf("router: navigation event without location: %T", evt.Payload)
				return
			}
			if err := history.Push(path); err != nil {
				logf("router: push %q: %v", path, err)
			}
		},
	}
}
