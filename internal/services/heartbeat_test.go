package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"

	"tickrunner/internal/config"
	"tickrunner/internal/logger"
	"tickrunner/internal/runner"
)

func heartbeatDeps(mr *miniredis.Miniredis, clk clock.Clock) Deps {
	cfg := config.DefaultConfig()
	cfg.Hostname = "edge-07"
	cfg.Redis.Address = mr.Addr()
	return Deps{Config: cfg, Clock: clk}
}

func TestHeartbeat_BeatWritesKeyWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock := clock.NewMock()
	mock.Set(now)
	mr.SetTime(now.Add(-1500 * time.Millisecond))

	b := HeartbeatBuilder(heartbeatDeps(mr, mock))
	svc, err := b.Build(parseArgs(t, b, "--ttl", "30s"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	h := svc.(*Heartbeat)
	h.SetRun("heartbeat", "run-1")

	if err := h.beat(context.Background()); err != nil {
		t.Fatalf("beat failed: %v", err)
	}

	if h.Key() != "HEARTBEAT:edge-07" {
		t.Errorf("expected key HEARTBEAT:edge-07, got %s", h.Key())
	}
	raw, err := mr.Get(h.Key())
	if err != nil {
		t.Fatalf("expected heartbeat key, got %v", err)
	}
	var got Beat
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("heartbeat value is not JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Hostname != "edge-07" || got.Sequence != 1 {
		t.Errorf("unexpected beat: %+v", got)
	}
	if got.SkewMs != 1500 || h.LastSkew() != 1500 {
		t.Errorf("expected skew 1500ms, got %d (last %d)", got.SkewMs, h.LastSkew())
	}
	if ttl := mr.TTL(h.Key()); ttl != 30*time.Second {
		t.Errorf("expected TTL 30s, got %v", ttl)
	}

	h.Finalize()
	if mr.Exists(h.Key()) {
		t.Error("expected heartbeat key deleted by finalize")
	}
}

func TestHeartbeat_CustomID(t *testing.T) {
	mr := miniredis.RunT(t)
	b := HeartbeatBuilder(heartbeatDeps(mr, nil))

	svc, err := b.Build(parseArgs(t, b, "--id", "line-3"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	h := svc.(*Heartbeat)
	defer h.Finalize()

	if h.Key() != "HEARTBEAT:line-3" {
		t.Errorf("expected key HEARTBEAT:line-3, got %s", h.Key())
	}
}

func TestHeartbeat_RunAndTerminate(t *testing.T) {
	mr := miniredis.RunT(t)
	b := HeartbeatBuilder(heartbeatDeps(mr, nil))

	handle, err := runner.Start(b, parseArgs(t, b, "--interval", "10ms", "--ttl", "1s"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	key := "HEARTBEAT:edge-07"
	deadline := time.Now().Add(2 * time.Second)
	for !mr.Exists(key) {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for heartbeat key")
		}
		time.Sleep(5 * time.Millisecond)
	}

	handle.Terminate()

	if mr.Exists(key) {
		t.Error("expected heartbeat key removed after Terminate")
	}
}

func TestHeartbeat_RedisDownKeepsTicking(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Address = "127.0.0.1:1"
	b := HeartbeatBuilder(Deps{Config: cfg})
	svc, err := b.Build(parseArgs(t, b, "--interval", "1ms", "--ttl", "1s"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	h := svc.(*Heartbeat)

	if err := h.beat(context.Background()); err == nil {
		t.Error("expected beat to fail with Redis down")
	}
	h.Tick()
	h.Finalize()
}

func TestHeartbeat_InvalidDurations(t *testing.T) {
	mr := miniredis.RunT(t)
	b := HeartbeatBuilder(heartbeatDeps(mr, nil))

	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"zero ttl", []string{"--ttl", "0s"}, "--ttl"},
		{"zero interval", []string{"--interval", "0s"}, "--interval"},
		{"interval not shorter than ttl", []string{"--interval", "30s", "--ttl", "30s"}, "shorter"},
		{"bad ip pattern", []string{"--ip-pattern", "("}, "pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(parseArgs(t, b, tt.argv...))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestHeartbeat_AddressListingErrorIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)

	orig := ipv4Addresses
	ipv4Addresses = func() ([]string, error) {
		return nil, errors.New("no interfaces")
	}
	defer func() { ipv4Addresses = orig }()

	logFile := filepath.Join(t.TempDir(), "heartbeat.log")
	if err := logger.Init(logger.Config{Level: "warn", FilePath: logFile, Format: logger.FormatJSON}); err != nil {
		t.Fatalf("logger.Init failed: %v", err)
	}
	defer func() { _ = logger.Init(logger.Config{Level: "disabled"}) }()

	b := HeartbeatBuilder(heartbeatDeps(mr, nil))
	svc, err := b.Build(parseArgs(t, b))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	h := svc.(*Heartbeat)
	defer h.Finalize()

	if h.ip != "" {
		t.Errorf("expected no IP, got %q", h.ip)
	}

	logger.Close()
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Failed to list IPv4 addresses") || !strings.Contains(out, "no interfaces") {
		t.Errorf("expected address listing warning in log, got %q", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level, got %q", out)
	}
}
