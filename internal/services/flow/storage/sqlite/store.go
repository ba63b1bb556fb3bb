// Package sqlite is the SQLite snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/resourceflow/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/resourceflow/internal/services/flow/storage"
	"github.com/louisbranch/resourceflow/internal/services/flow/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed snapshot persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path, creating its directory, and applies
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSnapshot inserts or replaces the snapshot under its key.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	snapshot.Key = strings.TrimSpace(snapshot.Key)
	if snapshot.Key == "" {
		return fmt.Errorf("snapshot key is required")
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO flow_snapshots (key, data, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	data = excluded.data,
	updated_at = excluded.updated_at
`,
		snapshot.Key,
		snapshot.Data,
		snapshot.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under key.
func (s *Store) LoadSnapshot(ctx context.Context, key string) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Snapshot{}, fmt.Errorf("storage is not configured")
	}

	snapshot := storage.Snapshot{Key: strings.TrimSpace(key)}
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT data, updated_at
FROM flow_snapshots
WHERE key = ?
`, snapshot.Key).Scan(&snapshot.Data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snapshot.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return snapshot, nil
}

var _ storage.SnapshotStore = (*Store)(nil)
