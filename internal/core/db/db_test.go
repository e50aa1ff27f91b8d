package db

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := Open("sqlite://" + path)
	if err != nil {
		t.Fatalf("Open() error = %v, want nil", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	if _, err := Open("mysql://localhost/db"); err == nil {
		t.Error("Open(mysql://) error = nil, want unsupported scheme error")
	}
	if _, err := Open("://bad"); err == nil {
		t.Error("Open(://bad) error = nil, want parse error")
	}
}

func TestMigrateUp_AppliesAndIsIdempotent(t *testing.T) {
	database := openTestDB(t)

	if err := MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp() error = %v, want nil", err)
	}

	// Schema is usable
	if _, err := database.Exec("INSERT INTO packages (name) VALUES ('foo')"); err != nil {
		t.Fatalf("insert after migration error = %v, want nil", err)
	}

	// Second pass is a no-op
	if err := MigrateUp(database); err != nil {
		t.Fatalf("second MigrateUp() error = %v, want nil", err)
	}

	statuses, err := MigrateStatus(database)
	if err != nil {
		t.Fatalf("MigrateStatus() error = %v, want nil", err)
	}
	if len(statuses) == 0 {
		t.Fatal("MigrateStatus() = empty, want at least the initial migration")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.ID)
		}
	}
}

func TestMigrateUp_DetectsTamperedChecksum(t *testing.T) {
	database := openTestDB(t)
	if err := MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp() error = %v, want nil", err)
	}

	if _, err := database.Exec("UPDATE migrations SET checksum = 'bogus'"); err != nil {
		t.Fatal(err)
	}

	if err := MigrateUp(database); err == nil {
		t.Error("MigrateUp() error = nil, want checksum validation error")
	}
}

func TestLoadQueries_NamedQueriesPresent(t *testing.T) {
	database := openTestDB(t)
	if err := MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp() error = %v, want nil", err)
	}

	queries, err := LoadQueries(database)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v, want nil", err)
	}

	if _, err := queries.Exec("insert-package", "foo", "1.0", "devel", "freebsd"); err != nil {
		t.Errorf("insert-package error = %v, want nil", err)
	}

	var count int
	if err := queries.Get("count-pending-packages", &count); err != nil {
		t.Errorf("count-pending-packages error = %v, want nil", err)
	}
	if count != 1 {
		t.Errorf("pending count = %d, want 1", count)
	}

	if _, err := queries.Exec("no-such-query"); err == nil {
		t.Error("Exec(no-such-query) error = nil, want not-found error")
	}
}
