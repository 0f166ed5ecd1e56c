package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func openMigrated(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "clinic.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	tables := []string{"accounts", "password_resets", "services", "appointments", "appointment_services"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		t.Fatalf("MigrationVersion() error: %v", err)
	}
	if version != 2 {
		t.Errorf("MigrationVersion() = %d, want 2", version)
	}

	// Re-running is a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations() error: %v", err)
	}

	var services int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM services").Scan(&services); err != nil {
		t.Fatal(err)
	}
	if services == 0 {
		t.Error("expected seeded services")
	}
}

func TestUniqueEmailConstraint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	insert := "INSERT INTO accounts (name, email, password_hash) VALUES (?, ?, ?)"
	if _, err := db.ExecReturningID(ctx, insert, "Ana", "ana@example.com", "hash"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	_, err := db.ExecReturningID(ctx, insert, "Ana 2", "ana@example.com", "hash")
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}

// TestWithTx tests commit and rollback through the transaction helper
func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()
	insert := "INSERT INTO accounts (name, email, password_hash) VALUES (?, ?, ?)"

	err := db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecReturningID(ctx, insert, "Committed", "commit@example.com", "hash")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	errAbort := errors.New("abort")
	err = db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecReturningID(ctx, insert, "Rolled", "rollback@example.com", "hash"); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("WithTx error = %v, want %v", err, errAbort)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE email = ?", "commit@example.com").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 committed account, got %d", count)
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE email = ?", "rollback@example.com").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected 0 accounts after rollback, got %d", count)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO accounts (name, email, password_hash) VALUES (?, ?, ?)",
		"Concurrent", "concurrent@example.com", "hash")
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var name string
			err := db.QueryRowContext(ctx, "SELECT name FROM accounts WHERE email = ?", "concurrent@example.com").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "Concurrent" {
				t.Errorf("Expected name 'Concurrent', got '%s'", name)
			}
		}()
	}
	wg.Wait()
}
