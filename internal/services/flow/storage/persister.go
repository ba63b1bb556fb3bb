package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/task"
)

// Persister writes the whitelisted slices of state under one application
// key. Unchanged documents are not rewritten.
type Persister struct {
	store     SnapshotStore
	key       string
	whitelist []string
	now       func() time.Time

	mu   sync.Mutex
	last []byte
}

// NewPersister creates a persister for key that keeps only the named slices.
func NewPersister(store SnapshotStore, key string, whitelist ...string) (*Persister, error) {
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("persist key is required")
	}
	if len(whitelist) == 0 {
		return nil, errors.New("persist whitelist is required")
	}
	return &Persister{
		store:     store,
		key:       key,
		whitelist: slices.Clone(whitelist),
		now:       time.Now,
	}, nil
}

// Save persists the whitelisted entries of state. It reports whether a
// write happened.
func (p *Persister) Save(ctx context.Context, state map[string]any) (bool, error) {
	doc := make(map[string]any, len(p.whitelist))
	for _, name := range p.whitelist {
		if value, ok := state[name]; ok {
			doc[name] = value
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode snapshot %s: %w", p.key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if bytes.Equal(data, p.last) {
		return false, nil
	}
	if err := p.store.SaveSnapshot(ctx, Snapshot{Key: p.key, Data: data, UpdatedAt: p.now().UTC()}); err != nil {
		return false, fmt.Errorf("save snapshot %s: %w", p.key, err)
	}
	p.last = data
	return true, nil
}

// Rehydrate decodes the stored slices into targets, keyed by slice name.
// Slices missing from the snapshot or from the whitelist are left alone. A
// missing snapshot is not an error.
func (p *Persister) Rehydrate(ctx context.Context, targets map[string]any) error {
	snapshot, err := p.store.LoadSnapshot(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", p.key, err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(snapshot.Data, &doc); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", p.key, err)
	}
	kept := make(map[string]json.RawMessage, len(p.whitelist))
	for _, name := range p.whitelist {
		raw, ok := doc[name]
		if !ok {
			continue
		}
		kept[name] = raw
		target, wanted := targets[name]
		if !wanted {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("decode slice %s: %w", name, err)
		}
	}
	last, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", p.key, err)
	}

	p.mu.Lock()
	p.last = last
	p.mu.Unlock()
	return nil
}

// Listener saves state after every event. slicesOf reads the current
// slices from the store.
func (p *Persister) Listener(slicesOf func() map[string]any, logf func(string, ...any)) task.Listener {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return task.Listener{
		Name:  "storage.persist",
		Match: func(event.Event) bool { return true },
		Handle: func(ctx context.Context, evt event.Event, _ task.Runtime) {
			if _, err := p.Save(ctx, slicesOf()); err != nil {
				logf("storage: persist after %s: %v", evt.Type, err)
			}
		},
	}
}
