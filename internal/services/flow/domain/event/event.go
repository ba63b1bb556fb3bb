package event

import "strings"

// Type identifies the kind of an event.
type Type string

// String returns the raw type name.
func (t Type) String() string {
	return string(t)
}

const (
	// TypeWipeAllState resets every module slice to its initial value.
	TypeWipeAllState Type = "WIPE_ALL_STATE"
	// TypeLogoutSuccess also resets every module slice.
	TypeLogoutSuccess Type = "LOGOUT_SUCCESS"
	// TypeWipeError clears the process-wide error slice.
	TypeWipeError Type = "DO_WIPE_ERROR"
	// TypeNavigate asks the navigation collaborator to change route.
	TypeNavigate Type = "ROUTER_PUSH"
)

const (
	// SuffixRequest marks the event emitted before an API call.
	SuffixRequest = "_REQUEST"
	// SuffixSuccess marks the event emitted after a successful API call.
	SuffixSuccess = "_SUCCESS"
	// SuffixFailure marks the event emitted after a failed API call.
	SuffixFailure = "_FAILURE"
	// PrefixTrigger marks the event a caller dispatches to start a flow.
	PrefixTrigger = "DO_"
)

// Event is one dispatched fact.
type Event struct {
	Type    Type
	Payload any
}

// New builds an event.
func New(t Type, payload any) Event {
	return Event{Type: t, Payload: payload}
}

// Dispatcher accepts events into the ordered stream.
type Dispatcher interface {
	Dispatch(evt Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(evt Event)

// Dispatch implements Dispatcher.
func (fn DispatcherFunc) Dispatch(evt Event) {
	fn(evt)
}

// Matcher reports whether a listener is interested in an event.
type Matcher func(evt Event) bool

// OfType matches events whose type equals t exactly.
func OfType(t Type) Matcher {
	return func(evt Event) bool {
		return evt.Type == t
	}
}

// IsReset reports whether t requests a global state reset. The match is a
// case-insensitive substring test so prefixed variants such as
// DO_WIPE_ALL_STATE also reset.
func IsReset(t Type) bool {
	lowered := strings.ToLower(string(t))
	return strings.Contains(lowered, "wipe_all_state") || strings.Contains(lowered, "logout_success")
}

// IsFailure reports whether t carries the failure suffix, in any case.
func IsFailure(t Type) bool {
	return HasSuffixFold(string(t), SuffixFailure)
}

// HasSuffixFold reports whether s ends with suffix under Unicode case folding.
func HasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// HasPrefixFold reports whether s starts with prefix under Unicode case folding.
func HasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}
