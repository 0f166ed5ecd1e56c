package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicbook/internal/database"
	"clinicbook/internal/models"
	"clinicbook/internal/repository"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctl.db")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("JWT_SECRET", "ctl-secret")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func openDB(t *testing.T, path string) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migration version 2")
}

func TestPromoteAndDemote(t *testing.T) {
	path := setupEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err)

	ctx := context.Background()
	accounts := repository.NewAccountRepository(openDB(t, path))
	_, err = accounts.Create(ctx, &models.Account{Name: "Staff", Email: "staff@example.com", PasswordHash: "x", Verified: true})
	require.NoError(t, err)

	out, err := execute(t, "promote", "staff@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "staff@example.com is now admin")

	acc, err := accounts.GetByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.True(t, acc.IsAdmin)

	_, err = execute(t, "demote", "staff@example.com")
	require.NoError(t, err)
	acc, err = accounts.GetByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.False(t, acc.IsAdmin)

	_, err = execute(t, "promote", "nobody@example.com")
	assert.Error(t, err)

	_, err = execute(t, "promote")
	assert.Error(t, err, "email argument is required")
}

func TestCleanup(t *testing.T) {
	path := setupEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err)

	ctx := context.Background()
	db := openDB(t, path)
	acc, err := repository.NewAccountRepository(db).Create(ctx, &models.Account{Name: "A", Email: "a@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = repository.NewPasswordResetRepository(db).Replace(ctx, acc.ID, "digest", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	out, err := execute(t, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 password reset tokens")
}
