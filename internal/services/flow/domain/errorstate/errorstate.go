// Package errorstate tracks the most recent API failure and redirects to
// the logout route when a session expires.
package errorstate

import (
	"context"
	"net/http"
	"slices"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/router"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/task"
)

// DefaultLogoutPath is where an unauthorized failure navigates.
const DefaultLogoutPath = "/logout"

// State is the process-wide error slice. The zero value means no error.
type State struct {
	Status  int            `json:"status,omitempty"`
	Message string         `json:"message,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Empty reports whether no error is recorded.
func (s State) Empty() bool {
	return s.Status == 0 && s.Message == "" && len(s.Errors) == 0 && len(s.Fields) == 0
}

// Wipe returns the event that clears the error slice.
func Wipe() event.Event {
	return event.New(event.TypeWipeError, nil)
}

// Reduce replaces the slice with the error of every failure event and
// clears it on wipe.
func Reduce(state State, evt event.Event) State {
	if evt.Type == event.TypeWipeError {
		return State{}
	}
	if !event.IsFailure(evt.Type) {
		return state
	}
	apiErr := payload.ErrorOf(evt.Payload)
	if apiErr == nil {
		return State{}
	}
	return State{
		Status:  apiErr.Status,
		Message: apiErr.Message,
		Errors:  slices.Clone(apiErr.Errors),
		Fields:  apiErr.Fields,
	}
}

type options struct {
	logoutPath string
	logf       func(string, ...any)
}

// Option configures the interceptor.
type Option func(*options)

// WithLogoutPath overrides the route used for unauthorized failures.
func WithLogoutPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.logoutPath = path
		}
	}
}

// WithLogf sets the interceptor logger.
func WithLogf(logf func(string, ...any)) Option {
	return func(o *options) {
		if logf != nil {
			o.logf = logf
		}
	}
}

// Interceptor returns a listener that inspects every failure event and
// dispatches a navigation to the logout route when its status is 401. Each
// failure is handled in its own worker.
func Interceptor(opts ...Option) task.Listener {
	o := options{logoutPath: DefaultLogoutPath, logf: func(string, ...any) {}}
	for _, opt := range opts {
		opt(&o)
	}
	return task.Listener{
		Name: "errorstate.interceptor",
		Match: func(evt event.Event) bool {
			return event.IsFailure(evt.Type)
		},
		Handle: func(ctx context.Context, evt event.Event, rt task.Runtime) {
			rt.Fork(ctx, "errorstate.unauthorized", func(context.Context) {
				apiErr := payload.ErrorOf(evt.Payload)
				if apiErr == nil || apiErr.Status != http.StatusUnauthorized {
					return
				}
				o.logf("flow: %s unauthorized, redirecting to %s", evt.Type, o.logoutPath)
				rt.Dispatch(router.Push(o.logoutPath))
			})
		},
	}
}
