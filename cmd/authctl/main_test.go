package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/synapse/internal/auth/lockout"
	"github.com/aussiebroadwan/synapse/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "auth.db")
	t.Setenv("AUTH_DATABASE_FILE", dbFile)
	t.Setenv("AUTH_PEPPER_FILE", filepath.Join(dir, "pepper"))
	return dbFile
}

func TestUserAdd(t *testing.T) {
	ctx := context.Background()
	setupEnv(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"useradd", "-email", "Alice@Example.com", "-username", "alice"}, &out))
	require.Contains(t, out.String(), "alice@example.com")
	require.Contains(t, out.String(), "password: ")

	out.Reset()
	err := run(ctx, []string{"useradd", "-email", "alice@example.com", "-username", "alice2", "-password", "hunter2hunter2"}, &out)
	require.ErrorContains(t, err, "email_taken")

	err = run(ctx, []string{"useradd", "-email", "not-an-email", "-username", "x"}, &out)
	require.ErrorContains(t, err, "invalid input")

	err = run(ctx, []string{"useradd", "-email", "bob@example.com", "-username", "bob", "-password", "short"}, &out)
	require.ErrorContains(t, err, "password")
}

func TestUnlock(t *testing.T) {
	ctx := context.Background()
	dbFile := setupEnv(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"useradd", "-email", "carol@example.com", "-username", "carol", "-password", "hunter2hunter2"}, &out))

	// Lock the account directly in the store.
	db, err := sqlite.NewStore(sqlite.DSN(dbFile))
	require.NoError(t, err)
	u, err := db.Users().GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	until := u.CreatedAt.Add(24 * time.Hour)
	ok, err := db.Users().SwapLockoutState(ctx, u.ID,
		lockout.State{},
		lockout.State{FailedAttempts: 5, LockUntil: &until},
		u.CreatedAt,
	)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, db.Close())

	out.Reset()
	require.NoError(t, run(ctx, []string{"unlock", "-email", "carol@example.com"}, &out))
	require.True(t, strings.HasPrefix(out.String(), "unlocked user "))

	db, err = sqlite.NewStore(sqlite.DSN(dbFile))
	require.NoError(t, err)
	defer db.Close()
	u, err = db.Users().GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Zero(t, u.FailedLoginAttempts)
	require.Nil(t, u.LockUntil)

	err = run(ctx, []string{"unlock", "-email", "nobody@example.com"}, &out)
	require.ErrorContains(t, err, "user_not_found")
}

func TestRun_Usage(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	require.Error(t, run(context.Background(), nil, &out))
	require.Contains(t, out.String(), "usage: authctl")

	require.ErrorContains(t, run(context.Background(), []string{"frobnicate"}, &out), "unknown command")
	require.NoError(t, run(context.Background(), []string{"help"}, &out))
}
