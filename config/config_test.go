package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Run.DeadlineSeconds != 45 {
		t.Fatalf("DeadlineSeconds=%d, want 45", cfg.Run.DeadlineSeconds)
	}
	if cfg.Run.CacheTTLSeconds != 300 {
		t.Fatalf("CacheTTLSeconds=%d, want 300", cfg.Run.CacheTTLSeconds)
	}
	if cfg.Model.Name == "" {
		t.Fatalf("default model name empty")
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sleuth.yaml")
	body := `
model:
  name: local-detective-3b
  base_url: http://127.0.0.1:8080/v1
run:
  deadline_seconds: 20
history:
  dir: /tmp/cases
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Name != "local-detective-3b" {
		t.Fatalf("Model.Name=%q", cfg.Model.Name)
	}
	if cfg.Run.DeadlineSeconds != 20 {
		t.Fatalf("DeadlineSeconds=%d, want 20", cfg.Run.DeadlineSeconds)
	}
	// Unset fields keep the defaults.
	if cfg.Run.CacheTTLSeconds != 300 {
		t.Fatalf("CacheTTLSeconds=%d, want default 300", cfg.Run.CacheTTLSeconds)
	}
	if cfg.Sources.PhotoLimitDays != 365 {
		t.Fatalf("PhotoLimitDays=%d, want default 365", cfg.Sources.PhotoLimitDays)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("model: [not: a: map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}
