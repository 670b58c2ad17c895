package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"migrations/001_create_investigations.up.sql":   {Data: []byte("CREATE TABLE investigations (id TEXT PRIMARY KEY);")},
	"migrations/001_create_investigations.down.sql": {Data: []byte("DROP TABLE investigations;")},
	"migrations/002_create_groups.up.sql":           {Data: []byte("CREATE TABLE groups_ (id TEXT PRIMARY KEY);")},
	"migrations/002_create_groups.down.sql":         {Data: []byte("DROP TABLE groups_;")},
	"migrations/README.md":                          {Data: []byte("ignored")},
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count == 1
}

func TestFSProviderGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testMigrations, "migrations", "", "").GetMigrations()
	if err != nil {
		t.Fatalf("GetMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create investigations" {
		t.Errorf("first migration = %+v", migrations[0])
	}
	if migrations[1].Up == "" || migrations[1].Down == "" {
		t.Errorf("second migration is missing SQL: %+v", migrations[1])
	}
}

func TestMigratorUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "migrations", "", "sqlite"), nil)

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %d, err = %v", len(pending), err)
	}

	if err := m.MigrateUp(ctx); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 2 {
		t.Errorf("version after up = %d, expected 2", v)
	}
	if !tableExists(t, db, "investigations") || !tableExists(t, db, "groups_") {
		t.Error("expected both tables to exist")
	}

	// Re-running is a no-op.
	if err := m.MigrateUp(ctx); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}

	if err := m.MigrateTo(ctx, 1); err != nil {
		t.Fatalf("MigrateTo(1): %v", err)
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 1 {
		t.Errorf("version after down = %d, expected 1", v)
	}
	if tableExists(t, db, "groups_") {
		t.Error("groups_ should have been dropped")
	}

	if err := m.MigrateDown(ctx, 1); err == nil {
		t.Error("expected an error migrating down to the current version")
	}

	if err := m.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("MigrateDown(0): %v", err)
	}
	if tableExists(t, db, "investigations") {
		t.Error("investigations should have been dropped")
	}
}

func TestMigratorRejectsMissingSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_only_down.down.sql": {Data: []byte("SELECT 1;")},
	}
	m := NewMigrator(openTestDB(t), NewFSProvider(fsys, "m", "", "sqlite"), nil)
	if err := m.MigrateUp(context.Background()); err == nil {
		t.Error("expected an error for a migration without up SQL")
	}
}
