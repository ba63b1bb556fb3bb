// Package timeouts defines the durations shared by flow binaries.
package timeouts

import "time"

// GRPCDial caps the wait for a backend connection to report healthy.
const GRPCDial = 2 * time.Second

// Settle caps how long the CLI waits for dispatched flows to finish.
const Settle = 10 * time.Second

// Shutdown caps graceful shutdown of servers and telemetry.
const Shutdown = 5 * time.Second
