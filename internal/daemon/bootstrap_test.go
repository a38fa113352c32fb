// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/greeter/internal/config"
	"github.com/ManuGH/greeter/internal/log"
	"github.com/ManuGH/greeter/internal/session"
)

func testConfig() config.AppConfig {
	cfg := config.Defaults()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Version = "test"
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := OpenStore(ctx, testConfig())
		require.NoError(t, err)
		assert.IsType(t, &session.MemoryStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.Session.Backend = config.SessionBackendRedis
		cfg.Session.RedisAddr = mr.Addr()

		store, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.IsType(t, &session.BreakerStore{}, store)
		assert.IsType(t, &session.RedisStore{}, store.(*session.BreakerStore).Unwrap())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := testConfig()
		cfg.Session.Backend = config.SessionBackendSQLite
		cfg.Session.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")

		store, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.IsType(t, &session.BreakerStore{}, store)
		assert.IsType(t, &session.SQLiteStore{}, store.(*session.BreakerStore).Unwrap())
	})

	t.Run("badger", func(t *testing.T) {
		cfg := testConfig()
		cfg.Session.Backend = config.SessionBackendBadger
		cfg.Session.BadgerDir = t.TempDir()

		store, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.IsType(t, &session.BreakerStore{}, store)
		assert.IsType(t, &session.BadgerStore{}, store.(*session.BreakerStore).Unwrap())
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := testConfig()
		cfg.Session.Backend = "etcd"
		_, err := OpenStore(ctx, cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestBuild_ServesPagesAndProbes(t *testing.T) {
	rt, err := Build(context.Background(), testConfig())
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()

	assert.Nil(t, rt.MetricsHandler)
	assert.NotNil(t, rt.Sweeper(), "memory store is swept by the daemon")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "probe/1.0")
	w := httptest.NewRecorder()
	rt.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>Your browser is probe/1.0</p>", w.Body.String())

	w = httptest.NewRecorder()
	rt.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "session_store")

	w = httptest.NewRecorder()
	rt.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuild_DedicatedMetricsAndSweeper(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.Session.Backend = config.SessionBackendSQLite
	cfg.Session.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")

	rt, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()

	require.NotNil(t, rt.MetricsHandler)
	assert.NotNil(t, rt.Sweeper())
	assert.Equal(t, "127.0.0.1:0", rt.Server.MetricsAddr)

	w := httptest.NewRecorder()
	rt.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuild_RejectsBadProxies(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"not-a-cidr"}
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestApp_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rt, err := Build(context.Background(), testConfig())
	require.NoError(t, err)

	mgr, err := NewManager(rt.Server, Deps{
		Logger:         log.WithComponent("test"),
		Handler:        rt.Handler,
		MetricsHandler: rt.MetricsHandler,
	})
	require.NoError(t, err)
	rt.RegisterHooks(mgr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewApp(log.WithComponent("test"), mgr, nil).Run(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(ctx, 2*time.Second)
	defer addrCancel()
	addr, err := mgr.(*manager).Addr(addrCtx, "api")
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/hello")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Hello, Stranger!")
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
