package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/synapse/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/synapse/pkg/authsdk"
	"github.com/aussiebroadwan/synapse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := LoadConfig()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Algorithm = "HS256"
	cfg.JWTSecret = strings.Repeat("a", jwtx.MinHS256SecretLength)
	cfg.DatabaseFile = filepath.Join(dir, "auth.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.LogLevel = "error"
	return cfg
}

func TestNew_Stateless(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.Nil(t, app.denylist)
	require.False(t, app.tokenService.Revocable())

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	ready, err := authsdk.NewSDKClient(srv.URL).GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
}

func TestNew_SQLiteRevocation(t *testing.T) {
	cfg := testConfig(t)
	cfg.RevocationBackend = RevocationSQLite

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.True(t, app.tokenService.Revocable())
	require.Nil(t, app.router.Revocation)
}

func TestNew_RedisRevocation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.RevocationBackend = RevocationRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	app, err := New(cfg)
	if err != nil {
		mr.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.rdb.Close()
		_ = app.db.Close()
	})

	require.IsType(t, &redis.Denylist{}, app.denylist)
	require.NotNil(t, app.router.Revocation)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	ready, err := authsdk.NewSDKClient(srv.URL).GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Revocation)

	mr.Close()
	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNew_Errors(t *testing.T) {
	t.Run("unknown revocation backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.RevocationBackend = "memcached"
		_, err := New(cfg)
		require.ErrorContains(t, err, "AUTH_REVOCATION_BACKEND")
	})

	t.Run("redis without url", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.RevocationBackend = RevocationRedis
		_, err := New(cfg)
		require.ErrorContains(t, err, "REDIS_URL")
	})

	t.Run("invalid service config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.BackupCodeCount = 0
		_, err := New(cfg)
		require.Error(t, err)
	})
}
