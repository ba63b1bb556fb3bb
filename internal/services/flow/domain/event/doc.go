// Package event defines the event envelope shared by every reducer and
// background listener in a flow runtime.
//
// Events are immutable facts. A single ordered stream of events is folded by
// all module reducers and observed by all listeners; nothing else mutates
// application state.
package event
