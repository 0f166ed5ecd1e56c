// Package dbtest opens migrated throwaway databases for repository and service tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"clinicbook/internal/database"
)

// New returns a migrated SQLite database that is closed when the test ends
func New(t testing.TB) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
