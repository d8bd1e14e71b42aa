package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tickrunner/internal/logger"
)

func init() {
	_ = logger.Init(logger.Config{Level: "disabled"})
}

// --- Defaults ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SenderType != SenderFile {
		t.Errorf("expected SenderType=file, got %q", cfg.SenderType)
	}
	if cfg.Service != "countdown" {
		t.Errorf("expected Service=countdown, got %q", cfg.Service)
	}
	if cfg.Kafka.Timeout != 10*time.Second {
		t.Errorf("expected Kafka.Timeout=10s, got %v", cfg.Kafka.Timeout)
	}
	if cfg.SOCKSProxy.Enabled() {
		t.Error("expected SOCKS proxy disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

// --- Parse ---

func TestParse_MergesOverDefaults(t *testing.T) {
	input := `{
		"Service": "heartbeat",
		"SenderType": "KAFKA",
		"Kafka": {
			"Brokers": ["broker-1:9092", "broker-2:9092"],
			"Topic": "samples",
			"RetryBackoff": "250ms",
			"Timeout": "3s",
			"SASLEnabled": true,
			"SASLMechanism": "SCRAM-SHA-512"
		},
		"Redis": {"Address": "10.0.0.5:6379", "DB": 4},
		"SocksProxy": {"Host": "127.0.0.1", "Port": 1080}
	}`

	cfg, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Service != "heartbeat" {
		t.Errorf("expected Service=heartbeat, got %q", cfg.Service)
	}
	if cfg.SenderType != SenderKafka {
		t.Errorf("expected SenderType lowercased to kafka, got %q", cfg.SenderType)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Topic != "samples" {
		t.Errorf("unexpected Kafka brokers/topic: %+v", cfg.Kafka)
	}
	if cfg.Kafka.RetryBackoff != 250*time.Millisecond {
		t.Errorf("expected RetryBackoff=250ms, got %v", cfg.Kafka.RetryBackoff)
	}
	if cfg.Kafka.Timeout != 3*time.Second {
		t.Errorf("expected Timeout=3s, got %v", cfg.Kafka.Timeout)
	}
	if cfg.Kafka.FlushFrequency != 500*time.Millisecond {
		t.Errorf("expected default FlushFrequency kept, got %v", cfg.Kafka.FlushFrequency)
	}
	if !cfg.Kafka.SASLEnabled || cfg.Kafka.SASLMechanism != "SCRAM-SHA-512" {
		t.Errorf("SASL settings not applied: %+v", cfg.Kafka)
	}
	if cfg.Redis.Address != "10.0.0.5:6379" || cfg.Redis.DB != 4 {
		t.Errorf("unexpected Redis config: %+v", cfg.Redis)
	}
	if !cfg.SOCKSProxy.Enabled() {
		t.Error("expected SOCKS proxy enabled")
	}
	if cfg.File.FilePath != DefaultConfig().File.FilePath {
		t.Errorf("expected default file path, got %q", cfg.File.FilePath)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte(`{"Kafka": {"Timeout": "soon"}}`))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "Kafka.Timeout") {
		t.Errorf("expected error to name the field, got %v", err)
	}
}

func TestParse_UnknownSenderType(t *testing.T) {
	_, err := Parse([]byte(`{"SenderType": "carrier-pigeon"}`))
	if err == nil {
		t.Fatal("expected error for unknown sender type")
	}
	if !strings.Contains(err.Error(), "unknown sender type") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_SOCKSHostWithoutPort(t *testing.T) {
	if _, err := Parse([]byte(`{"SocksProxy": {"Host": "proxy"}}`)); err == nil {
		t.Fatal("expected error for SOCKS host without port")
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// --- Logging ---

func TestParseLogging_Defaults(t *testing.T) {
	lc, err := ParseLogging([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseLogging failed: %v", err)
	}
	if *lc != logger.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", *lc)
	}
}

func TestParseLogging_Overrides(t *testing.T) {
	lc, err := ParseLogging([]byte(`{"Level": "debug", "Format": "json", "Console": false, "MaxAgeDays": 7}`))
	if err != nil {
		t.Fatalf("ParseLogging failed: %v", err)
	}
	if lc.Level != "debug" || lc.Format != "json" || lc.MaxAgeDays != 7 {
		t.Errorf("overrides not applied: %+v", *lc)
	}
	if lc.Console {
		t.Error("expected Console=false when written explicitly")
	}
	if !lc.Compress {
		t.Error("expected Compress default kept")
	}
}

func TestLoadSplit(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "TickRunner.json")
	loggingPath := filepath.Join(dir, "Logging.json")

	if err := os.WriteFile(configPath, []byte(`{"Service": "sysstat"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(loggingPath, []byte(`{"Level": "warn"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, lc, err := LoadSplit(configPath, loggingPath)
	if err != nil {
		t.Fatalf("LoadSplit failed: %v", err)
	}
	if cfg.Service != "sysstat" {
		t.Errorf("expected Service=sysstat, got %q", cfg.Service)
	}
	if lc.Level != "warn" {
		t.Errorf("expected Level=warn, got %q", lc.Level)
	}
}

func TestLoadSplit_MissingLogging(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "TickRunner.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadSplit(configPath, filepath.Join(dir, "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "logging config") {
		t.Fatalf("expected logging config error, got %v", err)
	}
}

func TestGetHostname_Configured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hostname = "edge-07"
	if got := GetHostname(cfg); got != "edge-07" {
		t.Errorf("expected edge-07, got %q", got)
	}
}
