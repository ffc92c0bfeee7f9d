// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, defaults, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/daxcurate/curation-gateway/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:3001"

storage:
  data_dir: "public/data"
  backup_dir: "backups"
  max_examples: 10

backends:
  cognos: "http://cognos-api:8001"
  microstrategy: "http://mstr-api:8002"
  tableau: "http://tableau-api:8003"
  request_timeout: "30s"

audit:
  path: "./audit.db"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:3001" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:3001")
	}
	if cfg.Storage.DataDir != "public/data" {
		t.Errorf("DataDir = %q, want %q", cfg.Storage.DataDir, "public/data")
	}
	if cfg.Storage.MaxExamples != 10 {
		t.Errorf("MaxExamples = %d, want 10", cfg.Storage.MaxExamples)
	}
	if cfg.Backends.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.Backends.RequestTimeout)
	}
	if cfg.Audit.Path != "./audit.db" {
		t.Errorf("Audit.Path = %q, want ./audit.db", cfg.Audit.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "backends:\n  cognos: \"http://localhost:8001\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q, want default %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Storage.MaxExamples != DefaultMaxExamples {
		t.Errorf("MaxExamples = %d, want default %d", cfg.Storage.MaxExamples, DefaultMaxExamples)
	}
	if cfg.Backends.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want default %v", cfg.Backends.RequestTimeout, DefaultRequestTimeout)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_MSTR_URL", "http://mstr.internal:8002")

	cfg, err := Load(writeConfig(t, "backends:\n  microstrategy: \"${TEST_MSTR_URL}\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backends.MicroStrategy != "http://mstr.internal:8002" {
		t.Errorf("MicroStrategy = %q, want expanded env value", cfg.Backends.MicroStrategy)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "backends:\n  request_timeout: \"not-a-duration\"\n"))
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "request_timeout") {
		t.Errorf("error %q should mention request_timeout", err)
	}
}

func TestLoad_ZeroTimeoutRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "backends:\n  request_timeout: \"0s\"\n"))
	if err == nil {
		t.Fatal("Load() expected error for zero request_timeout")
	}
	if !strings.Contains(err.Error(), "request_timeout must be positive") {
		t.Errorf("error %q should reject the zero timeout", err)
	}
}

func TestLoad_NegativeMaxExamplesRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  max_examples: -1\n"))
	if err == nil {
		t.Fatal("Load() expected error for negative max_examples")
	}
	if !strings.Contains(err.Error(), "max_examples must be positive") {
		t.Errorf("error %q should reject the negative bound", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestBackends_URLFor(t *testing.T) {
	b := BackendsConfig{
		Cognos:        "http://c:8001",
		MicroStrategy: "http://m:8002",
		Tableau:       "http://t:8003",
	}

	tests := []struct {
		domain store.DomainKey
		want   string
	}{
		{store.DomainCognos, "http://c:8001"},
		{store.DomainMicroStrategy, "http://m:8002"},
		{store.DomainTableau, "http://t:8003"},
		{store.DomainKey("powerbi"), ""},
	}
	for _, tt := range tests {
		if got := b.URLFor(tt.domain); got != tt.want {
			t.Errorf("URLFor(%s) = %q, want %q", tt.domain, got, tt.want)
		}
	}

	table := b.Table()
	if len(table) != 3 {
		t.Errorf("Table() has %d entries, want 3", len(table))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() config should validate, got %v", err)
	}
	if cfg.Backends.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.Backends.RequestTimeout, DefaultRequestTimeout)
	}
}
