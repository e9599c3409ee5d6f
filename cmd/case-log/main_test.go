package main

import (
	"flag"
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("case-log", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-dir", "./cases/", "-latest"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Dir != "cases" {
		t.Fatalf("Dir=%q, want cleaned path", cfg.Dir)
	}
	if !cfg.Latest {
		t.Fatalf("Latest not set")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("missing -dir should not validate")
	}
	if err := (Config{Dir: "d", Latest: true, ID: "x"}).Validate(); err == nil {
		t.Fatalf("-latest with -id should not validate")
	}
}
