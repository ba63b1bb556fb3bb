// Package app wires the users resource into a running flow: the module,
// the error interceptor, navigation history, persistence and a gRPC
// backend.
package app
