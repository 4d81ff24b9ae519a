package storage

import (
	"io/fs"
	"testing"
)

// TestMigrateURL verifies postgres DSNs are routed to the pgx migrate driver.
func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u@db/x", "pgx5://u@db/x"},
		{"pgx5://already/there", "pgx5://already/there"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestEmbeddedMigrations verifies every up migration has a matching down.
func TestEmbeddedMigrations(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(ups) == 0 {
		t.Fatal("no embedded migrations")
	}
	for _, up := range ups {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		if _, err := fs.Stat(migrationsFS, down); err != nil {
			t.Errorf("missing %s for %s", down, up)
		}
	}
}
