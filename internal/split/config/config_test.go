package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalYAML = `
sources:
  - name: chinalist
    url: https://example.org/china.conf
    format: dnsmasq
    category: domestic
  - name: gfwlist
    url: https://example.org/gfwlist.txt
    format: gfwlist
    category: foreign
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithMinimalFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.OutputDir != "dist" {
		t.Errorf("expected OutputDir=dist, got %q", cfg.OutputDir)
	}
	if cfg.TieBreak != "domestic" {
		t.Errorf("expected TieBreak=domestic, got %q", cfg.TieBreak)
	}
	if cfg.GroupSize != 5000 {
		t.Errorf("expected GroupSize=5000, got %d", cfg.GroupSize)
	}
	if cfg.Fetch.OnError != "skip" {
		t.Errorf("expected Fetch.OnError=skip, got %q", cfg.Fetch.OnError)
	}
	if cfg.Fetch.TimeoutSeconds != 30 {
		t.Errorf("expected Fetch.TimeoutSeconds=30, got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Outputs.Whitelist != "gn.txt" || cfg.Outputs.Blacklist != "gw.txt" {
		t.Errorf("unexpected output defaults: %+v", cfg.Outputs)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "chinalist" || cfg.Sources[0].Category != "domestic" {
		t.Errorf("unexpected source[0]: %+v", cfg.Sources[0])
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPLITGEN_ENV", "dev")
	t.Setenv("SPLITGEN_LOG_LEVEL", "debug")
	t.Setenv("SPLITGEN_OUTPUT_DIR", "/tmp/out")
	t.Setenv("SPLITGEN_TIE_BREAK", "foreign")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("expected OutputDir=/tmp/out, got %q", cfg.OutputDir)
	}
	if cfg.TieBreak != "foreign" {
		t.Errorf("expected TieBreak=foreign, got %q", cfg.TieBreak)
	}
}

func TestLoad_NestedEnvOverride(t *testing.T) {
	t.Setenv("SPLITGEN_FETCH__ON_ERROR", "abort")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Fetch.OnError != "abort" {
		t.Errorf("expected Fetch.OnError=abort, got %q", cfg.Fetch.OnError)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	// Without sources the config cannot validate; a missing file must surface
	// the validation error, not a file error.
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected validation error with no sources configured")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"bad category",
			strings.Replace(minimalYAML, "category: domestic", "category: nearby", 1),
		},
		{
			"bad url scheme",
			strings.Replace(minimalYAML, "https://example.org/china.conf", "ftp://example.org/china.conf", 1),
		},
		{
			"bad format",
			strings.Replace(minimalYAML, "format: dnsmasq", "format: csv", 1),
		},
		{
			"missing name",
			strings.Replace(minimalYAML, "name: chinalist", "name: \"\"", 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("SPLITGEN_LOG_LEVEL", "loud")
	if _, err := Load(writeConfig(t, minimalYAML)); err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}
