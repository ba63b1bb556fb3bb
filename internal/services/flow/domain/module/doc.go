// Package module generates a request-lifecycle slice of application state
// from a list of resource action descriptors.
//
// For each descriptor the module derives four event types (trigger, request,
// success, failure), a pure reducer that tracks per-request fetch status and
// keeps an id-keyed item cache and an id listing in lockstep, and a listener
// that turns each trigger into an independent fetch worker.
//
// Verb classification happens once, when the module is built. The reducer
// switches on the stored verb rather than re-matching names per event.
package module
