package sqlitemigrate

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApply_RecordsOnce(t *testing.T) {
	db := openMemory(t)
	migrations := fstest.MapFS{
		"002_index.sql":  {Data: []byte("-- +migrate Up\nCREATE INDEX snap_key ON snaps(key);\n-- +migrate Down\nDROP INDEX snap_key;")},
		"001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE snaps(key TEXT PRIMARY KEY);")},
		"README.md":      {Data: []byte("ignored")},
	}

	applied, err := Apply(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(applied, []string{"001_create.sql", "002_index.sql"}) {
		t.Fatalf("applied = %v", applied)
	}

	applied, err = Apply(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("reapplied = %v, want none", applied)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 2 {
		t.Fatalf("recorded = %d, want 2", n)
	}
}

func TestApply_FailedMigrationStaysUnrecorded(t *testing.T) {
	db := openMemory(t)
	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("CREAT TABLE things(id INT);")}}
	if _, err := Apply(context.Background(), db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if n := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 0 {
		t.Fatalf("recorded = %d, want 0", n)
	}

	good := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE things(id INTEGER PRIMARY KEY);")}}
	if _, err := Apply(context.Background(), db, good, ""); err != nil {
		t.Fatalf("apply fixed: %v", err)
	}
}

func TestApply_Root(t *testing.T) {
	db := openMemory(t)
	migrations := fstest.MapFS{
		"flow/001_rows.sql": {Data: []byte("CREATE TABLE rows(id TEXT PRIMARY KEY);")},
	}
	applied, err := Apply(context.Background(), db, migrations, "flow")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(applied, []string{"flow/001_rows.sql"}) {
		t.Fatalf("applied = %v", applied)
	}
}

func TestApply_NilDB(t *testing.T) {
	if _, err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestUpSection(t *testing.T) {
	got := UpSection("-- +migrate Up\nA;\n-- +migrate Down\nB;")
	if got != "\nA;\n" {
		t.Fatalf("UpSection = %q", got)
	}
	if got := UpSection("PLAIN;"); got != "PLAIN;" {
		t.Fatalf("UpSection = %q", got)
	}
}

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return db
}

func count(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var n int64
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	return n
}
