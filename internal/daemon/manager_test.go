// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ManuGH/greeter/internal/log"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func testServerConfig(listen string) ServerConfig {
	cfg := DefaultServerConfig(listen, "", 2*time.Second)
	cfg.ReadTimeout = time.Second
	cfg.WriteTimeout = time.Second
	return cfg
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestNewManager_MissingHandler(t *testing.T) {
	_, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{Logger: log.WithComponent("test")})
	if !errors.Is(err, ErrMissingHandler) {
		t.Fatalf("NewManager() error = %v, want %v", err, ErrMissingHandler)
	}
}

func TestNewManager_DefaultShutdownTimeout(t *testing.T) {
	cfg := testServerConfig("127.0.0.1:0")
	cfg.ShutdownTimeout = 0
	mgr, err := NewManager(cfg, Deps{Logger: log.WithComponent("test"), Handler: http.NotFoundHandler()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if got := mgr.(*manager).serverCfg.ShutdownTimeout; got != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 10s", got)
	}
}

func TestManager_StartStop_OK(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	mgr, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{
		Logger:  log.WithComponent("test"),
		Handler: handler,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var hookOrder []string
	mgr.RegisterShutdownHook("first", func(context.Context) error {
		hookOrder = append(hookOrder, "first")
		return nil
	})
	mgr.RegisterShutdownHook("second", func(context.Context) error {
		hookOrder = append(hookOrder, "second")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	addrCtx, addrCancel := context.WithTimeout(ctx, 2*time.Second)
	defer addrCancel()
	addr, err := mgr.(*manager).Addr(addrCtx, "api")
	if err != nil {
		t.Fatalf("Addr() error = %v", err)
	}

	status, body := get(t, "http://"+addr+"/")
	if status != http.StatusOK || body != "OK" {
		t.Fatalf("GET / = %d %q", status, body)
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	if strings.Join(hookOrder, ",") != "second,first" {
		t.Fatalf("hooks ran as %v, want LIFO", hookOrder)
	}
}

func TestManager_Shutdown_External(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{
		Logger:  log.WithComponent("test"),
		Handler: http.NotFoundHandler(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(context.Background())
	}()

	addrCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := mgr.(*manager).Addr(addrCtx, "api"); err != nil {
		t.Fatalf("Addr() error = %v", err)
	}

	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	// A second call is a no-op.
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Shutdown")
	}
}

func TestManager_Shutdown_TimesOut(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	requestStarted := make(chan struct{})
	releaseHandler := make(chan struct{})
	handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-requestStarted:
		default:
			close(requestStarted)
		}
		select {
		case <-r.Context().Done():
		case <-releaseHandler:
		}
	})

	serverCfg := testServerConfig(reserveListenAddr(t))
	serverCfg.ShutdownTimeout = 100 * time.Millisecond

	mgr, err := NewManager(serverCfg, Deps{Logger: log.WithComponent("test"), Handler: handler})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	if err := waitForListen(serverCfg.ListenAddr, 2*time.Second); err != nil {
		t.Fatalf("server did not start listening: %v", err)
	}

	requestDone := make(chan struct{})
	go func() {
		defer close(requestDone)
		client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+serverCfg.ListenAddr, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil {
			_ = resp.Body.Close()
		}
	}()

	select {
	case <-requestStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("expected in-flight request before shutdown")
	}

	cancel()

	select {
	case err := <-errChan:
		if err == nil {
			t.Fatal("expected shutdown timeout error, got nil")
		}
		if !strings.Contains(err.Error(), "shutdown errors") {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	close(releaseHandler)

	select {
	case <-requestDone:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked request did not terminate after shutdown")
	}
}

func TestManager_Shutdown_NotStarted(t *testing.T) {
	mgr, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{
		Logger:  log.WithComponent("test"),
		Handler: http.NotFoundHandler(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	err = mgr.Shutdown(context.Background())
	if !errors.Is(err, ErrManagerNotStarted) {
		t.Errorf("Shutdown() error = %v, want %v", err, ErrManagerNotStarted)
	}
}

func TestManager_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{
		Logger:  log.WithComponent("test"),
		Handler: http.NotFoundHandler(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	addrCtx, addrCancel := context.WithTimeout(ctx, 2*time.Second)
	defer addrCancel()
	if _, err := mgr.(*manager).Addr(addrCtx, "api"); err != nil {
		t.Fatalf("Addr() error = %v", err)
	}

	if err := mgr.Start(ctx); !errors.Is(err, ErrManagerAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want %v", err, ErrManagerAlreadyStarted)
	}

	cancel()
	if err := <-errChan; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestManager_WithMetrics(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("api"))
	})
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})

	serverCfg := testServerConfig("127.0.0.1:0")
	serverCfg.MetricsAddr = "127.0.0.1:0"

	mgr, err := NewManager(serverCfg, Deps{
		Logger:         log.WithComponent("test"),
		Handler:        apiHandler,
		MetricsHandler: metricsHandler,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	addrCtx, addrCancel := context.WithTimeout(ctx, 2*time.Second)
	defer addrCancel()
	m := mgr.(*manager)
	apiAddr, err := m.Addr(addrCtx, "api")
	if err != nil {
		t.Fatalf("Addr(api) error = %v", err)
	}
	metricsAddr, err := m.Addr(addrCtx, "metrics")
	if err != nil {
		t.Fatalf("Addr(metrics) error = %v", err)
	}

	if _, body := get(t, "http://"+apiAddr+"/"); body != "api" {
		t.Errorf("api body = %q", body)
	}
	if _, body := get(t, "http://"+metricsAddr+"/metrics"); body != "metrics" {
		t.Errorf("metrics body = %q", body)
	}

	cancel()
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func TestManager_PropagatesListenErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to occupy port: %v", err)
	}
	defer func() { _ = ln.Close() }()

	mgr, err := NewManager(testServerConfig(ln.Addr().String()), Deps{
		Logger:  log.WithComponent("test"),
		Handler: http.NotFoundHandler(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	err = mgr.Start(context.Background())
	if !errors.Is(err, ErrServerStartFailed) {
		t.Fatalf("Start() error = %v, want %v", err, ErrServerStartFailed)
	}
}
