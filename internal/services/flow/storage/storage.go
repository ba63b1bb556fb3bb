// Package storage persists whitelisted slices of application state between
// runs.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no snapshot is stored under a key.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one persisted state document.
type Snapshot struct {
	Key       string
	Data      []byte
	UpdatedAt time.Time
}

// SnapshotStore saves and loads state documents by key.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	LoadSnapshot(ctx context.Context, key string) (Snapshot, error)
}
