package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if time.Duration(cfg.AIDelay) != 500*time.Millisecond {
		t.Fatalf("expected 500ms ai delay, got %v", time.Duration(cfg.AIDelay))
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{"addr": ":9090", "ai_delay": "250ms", "heartbeat": 1000000000}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if time.Duration(cfg.AIDelay) != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", time.Duration(cfg.AIDelay))
	}
	if time.Duration(cfg.Heartbeat) != time.Second {
		t.Fatalf("expected 1s heartbeat, got %v", time.Duration(cfg.Heartbeat))
	}
	if cfg.Strategy != "heuristic" {
		t.Fatalf("missing keys should keep defaults, got strategy %q", cfg.Strategy)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, `{"ai_delay": "soon"}`)); err == nil {
		t.Fatalf("expected error for bad duration")
	}
	_, err := Load(writeConfig(t, `{"addr": "", "ai_delay": "-1s"}`))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "addr") || !strings.Contains(err.Error(), "ai_delay") {
		t.Fatalf("expected both fields reported, got %v", err)
	}
}

func TestDurationMarshal(t *testing.T) {
	b, err := Duration(1500 * time.Millisecond).MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"1.5s"` {
		t.Fatalf("unexpected encoding %s", b)
	}
}
