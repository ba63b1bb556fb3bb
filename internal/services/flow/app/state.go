package app

import (
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/errorstate"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/module"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/router"
)

// Slice names used as JSON keys and persistence whitelist entries.
const (
	SliceUsers  = "users"
	SliceError  = "error"
	SliceRouter = "router"
)

// RootState is the application state owned by the store.
type RootState struct {
	Users  module.State     `json:"users"`
	Error  errorstate.State `json:"error"`
	Router router.State     `json:"router"`
}

// RootReducer composes the slice reducers. Every slice sees every event.
func RootReducer(users *module.Module) func(RootState, event.Event) RootState {
	return func(state RootState, evt event.Event) RootState {
		state.Users = users.Reduce(state.Users, evt)
		state.Error = errorstate.Reduce(state.Error, evt)
		state.Router = router.Reduce(state.Router, evt)
		return state
	}
}

// Slices returns the named slices of s.
func (s RootState) Slices() map[string]any {
	return map[string]any{
		SliceUsers:  s.Users,
		SliceError:  s.Error,
		SliceRouter: s.Router,
	}
}

// Targets returns decode targets for each named slice of s.
func (s *RootState) Targets() map[string]any {
	return map[string]any{
		SliceUsers:  &s.Users,
		SliceError:  &s.Error,
		SliceRouter: &s.Router,
	}
}
