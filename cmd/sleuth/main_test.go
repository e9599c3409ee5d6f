package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("sleuth", flag.ContinueOnError)
	cfg, err := parseFlags(fs, nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.DeadlineSeconds != 45 {
		t.Fatalf("DeadlineSeconds=%d, want 45", cfg.DeadlineSeconds)
	}
	if cfg.Demo {
		t.Fatalf("demo should default to false")
	}
}

func TestParseFlags_FileOverlayAndPrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sleuth.yaml")
	body := `
model:
  name: local-detective-3b
run:
  deadline_seconds: 20
history:
  dir: /tmp/cases
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fs := flag.NewFlagSet("sleuth", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-config", path, "-deadline", "10"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Model != "local-detective-3b" {
		t.Fatalf("Model=%q, want file value", cfg.Model)
	}
	if cfg.DeadlineSeconds != 10 {
		t.Fatalf("DeadlineSeconds=%d, want flag to beat file", cfg.DeadlineSeconds)
	}
	if cfg.HistoryDir != "/tmp/cases" {
		t.Fatalf("HistoryDir=%q, want file value", cfg.HistoryDir)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.DeadlineSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero deadline should not validate")
	}

	cfg = defaultConfig()
	cfg.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("empty model should not validate")
	}
}
