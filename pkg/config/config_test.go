package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 8080
backend:
  type: engine
engine:
  window_duration: 60s
  eviction_interval: 10s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" || cfg.Backend.Type != "engine" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Engine.WindowDuration != 60*time.Second {
		t.Fatalf("unexpected window duration %v", cfg.Engine.WindowDuration)
	}
}

func TestLoadRejectsNonPositiveWindow(t *testing.T) {
	body := `
environment: test
backend:
  type: engine
engine:
  window_duration: 0s
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for zero window duration")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	body := `
environment: test
backend:
  type: sqlite
engine:
  window_duration: 60s
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	body := `
environment: test
backend:
  type: kafka
engine:
  window_duration: 60s
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for kafka backend without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_TOPIC", "positions-override")
	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Kafka.Topic != "positions-override" {
		t.Fatalf("expected env override, got %q", cfg.Kafka.Topic)
	}
}
