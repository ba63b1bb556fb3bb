// Package task defines the contract between background listeners and the
// runtime that feeds them events.
package task

import (
	"context"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
)

// Runtime is what a listener needs from the harness that runs it.
type Runtime interface {
	event.Dispatcher
	// Fork starts fn as an independent worker and returns immediately.
	// Workers are never cancelled by the runtime; fn receives a context that
	// keeps the caller's values but not its cancellation.
	Fork(ctx context.Context, name string, fn func(ctx context.Context))
}

// Listener is a long-lived task that reacts to every matching event for the
// lifetime of the runtime. Handle must not block on slow work; it forks a
// worker instead.
type Listener struct {
	Name   string
	Match  event.Matcher
	Handle func(ctx context.Context, evt event.Event, rt Runtime)
}
