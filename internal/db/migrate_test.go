// Package db tests for database migration management.
package db

import (
	"database/sql"
	"strings"
	"testing"
	"testing/fstest"
)

// openTestDB opens a private in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.DB
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return count == 1
}

// TestInitialize verifies schema_migrations table creation.
func TestInitialize(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, fstest.MapFS{})

	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if !tableExists(t, db, "schema_migrations") {
		t.Fatal("schema_migrations table not found")
	}

	_, err := db.Exec("INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)",
		1, 123456, "test_migration", strings.Repeat("a", 64))
	if err != nil {
		t.Errorf("Failed to insert test row: %v", err)
	}

	_, err = db.Exec("INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)",
		2, 123456, "bad_checksum", "short")
	if err == nil {
		t.Error("checksum length constraint should reject short values")
	}
}

// TestCurrentVersion verifies version tracking.
func TestCurrentVersion(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, fstest.MapFS{})

	if _, err := m.CurrentVersion(); err == nil {
		t.Error("CurrentVersion() should fail before Initialize()")
	}

	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	version, err := m.CurrentVersion()
	if err != nil {
		t.Errorf("CurrentVersion() failed: %v", err)
	}
	if version != 0 {
		t.Errorf("CurrentVersion() = %d, want 0", version)
	}

	_, err = db.Exec("INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)",
		3, 123456, "initial", strings.Repeat("a", 64))
	if err != nil {
		t.Fatalf("Failed to insert migration: %v", err)
	}

	version, err = m.CurrentVersion()
	if err != nil {
		t.Errorf("CurrentVersion() failed: %v", err)
	}
	if version != 3 {
		t.Errorf("CurrentVersion() = %d, want 3", version)
	}
}

// TestParseMigrationName verifies file name parsing.
func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name        string
		version     int
		description string
		ok          bool
	}{
		{"V1__initial_schema.up.sql", 1, "initial_schema", true},
		{"V12__add_index.up.sql", 12, "add_index", true},
		{"V1__initial_schema.down.sql", 0, "", false},
		{"V1.up.sql", 0, "", false},
		{"Vx__bad.up.sql", 0, "", false},
		{"V0__zero.up.sql", 0, "", false},
		{"V2__.up.sql", 0, "", false},
		{"README.md", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, description, ok := parseMigrationName(tt.name, ".up.sql")
			if ok != tt.ok || version != tt.version || description != tt.description {
				t.Errorf("parseMigrationName(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.name, version, description, ok, tt.version, tt.description, tt.ok)
			}
		})
	}
}

// TestUp_noMigrations verifies Up succeeds when no migrations exist.
func TestUp_noMigrations(t *testing.T) {
	m := NewMigrator(openTestDB(t), fstest.MapFS{})

	if err := m.Up(); err != nil {
		t.Errorf("Up() with no migrations failed: %v", err)
	}
}

// TestDown_noMigrations verifies error when no migrations to rollback.
func TestDown_noMigrations(t *testing.T) {
	m := NewMigrator(openTestDB(t), fstest.MapFS{})

	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	err := m.Down()
	if err == nil {
		t.Fatal("Down() with no migrations should return error")
	}
	if !strings.Contains(err.Error(), "no migrations to rollback") {
		t.Errorf("Error message should mention 'no migrations to rollback', got: %v", err)
	}
}

// TestUp_appliesInOrder verifies files are applied by version, not name.
func TestUp_appliesInOrder(t *testing.T) {
	db := openTestDB(t)
	files := fstest.MapFS{
		"V10__add_column.up.sql":    {Data: []byte(`ALTER TABLE test_table ADD COLUMN note TEXT;`)},
		"V2__create_table.up.sql":   {Data: []byte(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, name TEXT);`)},
		"V2__create_table.down.sql": {Data: []byte(`DROP TABLE test_table;`)},
		"notes.txt":                 {Data: []byte("ignored")},
	}
	m := NewMigrator(db, files)

	if err := m.Up(); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		t.Fatalf("GetAppliedMigrations() failed: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("applied %d migrations, want 2", len(applied))
	}
	if applied[0].Version != 2 || applied[0].Description != "create_table" {
		t.Errorf("first migration = %+v", applied[0])
	}
	if applied[1].Version != 10 || applied[1].Description != "add_column" {
		t.Errorf("second migration = %+v", applied[1])
	}
	if len(applied[0].Checksum) != 64 {
		t.Errorf("checksum = %q, want sha256 hex", applied[0].Checksum)
	}

	if err := m.Up(); err != nil {
		t.Errorf("Up() second time failed: %v", err)
	}
}

// TestUp_detectsModifiedMigration verifies applied files cannot change.
func TestUp_detectsModifiedMigration(t *testing.T) {
	db := openTestDB(t)
	files := fstest.MapFS{
		"V1__create.up.sql": {Data: []byte(`CREATE TABLE test_table (id INTEGER PRIMARY KEY);`)},
	}
	if err := NewMigrator(db, files).Up(); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}

	files["V1__create.up.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE other (id INTEGER);`)}
	err := NewMigrator(db, files).Up()
	if err == nil || !strings.Contains(err.Error(), "modified") {
		t.Errorf("Up() error = %v, want modified migration error", err)
	}
}

// TestUp_failedMigrationRollsBack verifies a broken file leaves no record.
func TestUp_failedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, fstest.MapFS{
		"V1__broken.up.sql": {Data: []byte(`CREATE TABLE ok_table (id INTEGER); NOT SQL;`)},
	})

	if err := m.Up(); err == nil {
		t.Fatal("Up() should fail on invalid SQL")
	}
	version, err := m.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion() failed: %v", err)
	}
	if version != 0 {
		t.Errorf("CurrentVersion() = %d, want 0", version)
	}
}

// TestEmbeddedMigrations verifies the shipped schema applies and rolls back.
func TestEmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, Migrations())

	if err := m.Up(); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}
	for _, table := range []string{"projects", "commits", "changelogs"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	version, err := m.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion() failed: %v", err)
	}
	if version != 1 {
		t.Errorf("CurrentVersion() = %d, want 1", version)
	}

	if err := m.Down(); err != nil {
		t.Fatalf("Down() failed: %v", err)
	}
	for _, table := range []string{"projects", "commits", "changelogs"} {
		if tableExists(t, db, table) {
			t.Errorf("table %s still exists after Down()", table)
		}
	}
}
