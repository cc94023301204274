// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
data:
  root: "/var/lib/wndr"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Root != "/var/lib/wndr" {
		t.Errorf("Data.Root = %q, want %q", cfg.Data.Root, "/var/lib/wndr")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want %v", cfg.LogLevel(), slog.LevelDebug)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Root != "data" {
		t.Errorf("Data.Root = %q, want default %q", cfg.Data.Root, "data")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Logging.Format, "text")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("WNDR_TEST_ROOT", "/tmp/wndr-test")

	path := writeConfig(t, `
data:
  root: "${WNDR_TEST_ROOT}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.Root != "/tmp/wndr-test" {
		t.Errorf("Data.Root = %q, want expanded env value", cfg.Data.Root)
	}
}

func TestLoad_InvalidLevel(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "verbose"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid logging level")
	}
}

func TestLoad_InvalidFormat(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: "xml"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid logging format")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_EmptyRootRejected(t *testing.T) {
	t.Setenv("WNDR_UNSET_ROOT_FOR_TEST", "")

	path := writeConfig(t, `
data:
  root: "${WNDR_UNSET_ROOT_FOR_TEST}"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for empty root")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	if cfg.NewLogger() == nil {
		t.Fatal("NewLogger returned nil")
	}

	cfg.Logging.Format = "json"
	if cfg.NewLogger() == nil {
		t.Fatal("NewLogger returned nil for json format")
	}
}
