package shared

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMigrationRunner(t *testing.T) {
	ctx := context.Background()

	openTemp := func(t *testing.T) *DatabaseConfig {
		t.Helper()
		return &DatabaseConfig{Path: filepath.Join(t.TempDir(), "journal.db"), MaxOpenConns: 1, MaxIdleConns: 1}
	}

	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}
		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: %d after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
		if migrations[0].Name != "create_runs" {
			t.Errorf("expected first migration create_runs, got %q", migrations[0].Name)
		}
	})

	t.Run("readMigrations rejects half a pair", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/0000_a_up.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
		}
		if _, err := readMigrations(fsys, "sql"); err == nil {
			t.Fatal("expected error for missing down migration")
		}
	})

	t.Run("readMigrations skips unnumbered files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/README.sql":      {Data: []byte("-- notes")},
			"sql/0003_b_up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
			"sql/0003_b_down.sql": {Data: []byte("DROP TABLE b;")},
		}
		got, err := readMigrations(fsys, "sql")
		if err != nil {
			t.Fatalf("readMigrations() error = %v", err)
		}
		if len(got) != 1 || got[0].Version != 3 || got[0].Name != "b" {
			t.Errorf("unexpected migrations: %+v", got)
		}
	})

	t.Run("OpenJournal applies schema and rollback reverts one step", func(t *testing.T) {
		db, err := OpenJournal(ctx, *openTemp(t))
		if err != nil {
			t.Fatalf("OpenJournal() error = %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM runs LIMIT 1"); err != nil {
			t.Fatalf("runs table should exist: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to count migrations: %v", err)
		}

		if err := RollbackMigration(ctx, db); err != nil {
			t.Fatalf("RollbackMigration() error = %v", err)
		}

		var after int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&after); err != nil {
			t.Fatalf("failed to count migrations: %v", err)
		}
		if after != count-1 {
			t.Errorf("expected %d migrations after rollback, got %d", count-1, after)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db, err := OpenJournal(ctx, *openTemp(t))
		if err != nil {
			t.Fatalf("OpenJournal() error = %v", err)
		}
		defer db.Close()

		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("second RunMigrations() error = %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to count migrations: %v", err)
		}
		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d applied migrations, got %d", len(migrations), count)
		}
	})

	t.Run("rollback on empty journal", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "empty.db"))
		if err != nil {
			t.Fatalf("NewDatabase() error = %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		if err := RollbackMigration(ctx, db); err == nil {
			t.Error("expected error when nothing is applied")
		}
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		if _, err := OpenJournal(ctx, DatabaseConfig{}); err == nil {
			t.Error("expected error for empty path")
		}
	})
}
