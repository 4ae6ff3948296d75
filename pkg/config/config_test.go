package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_FileSizeLimit(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a large file (> 1MB)
	largeFile := filepath.Join(tmpDir, "large.yaml")
	data := strings.Repeat("x: value\n", 200000) // ~1.6MB
	err := os.WriteFile(largeFile, []byte(data), 0600)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	_, err = LoadConfig(largeFile)
	if err == nil {
		t.Error("expected error for large file")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected 'too large' error, got: %v", err)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()

	validConfig := `
submolt: mbc-20
tick: CLAW
mint_amount: "100"
agents_file: agents.json
schedule:
  unknown_retry: 30s
`

	validFile := filepath.Join(tmpDir, "valid.yaml")
	err := os.WriteFile(validFile, []byte(validConfig), 0600)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg, err := LoadConfig(validFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tick != "CLAW" {
		t.Errorf("expected tick 'CLAW', got %s", cfg.Tick)
	}
	if cfg.AgentsFile != "agents.json" {
		t.Errorf("expected agents_file 'agents.json', got %s", cfg.AgentsFile)
	}
	if cfg.Schedule.UnknownRetry != Duration(30*time.Second) {
		t.Errorf("expected unknown_retry 30s, got %v", cfg.Schedule.UnknownRetry)
	}
	// Untouched fields pick up defaults
	if cfg.Schedule.SuccessSleep != Duration(2*time.Hour) {
		t.Errorf("expected default success_sleep 2h, got %v", cfg.Schedule.SuccessSleep)
	}
	if cfg.MoltbookBaseURL != DefaultMoltbookBaseURL {
		t.Errorf("expected default moltbook base url, got %s", cfg.MoltbookBaseURL)
	}
	if cfg.Runtime.DisableMetrics {
		t.Error("metrics should stay on unless disabled explicitly")
	}
}

func TestLoadConfig_BareIntDurationIsSeconds(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "cfg.yaml")
	body := "recovery:\n  interval: 300\n"
	if err := os.WriteFile(file, []byte(body), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recovery.Interval != Duration(300*time.Second) {
		t.Errorf("expected 300 to mean 300s, got %v", cfg.Recovery.Interval.Std())
	}
}

func TestLoadConfig_DisableMetrics(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "cfg.yaml")
	body := "runtime:\n  disable_metrics: true\n"
	if err := os.WriteFile(file, []byte(body), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Runtime.DisableMetrics {
		t.Error("expected metrics to be disabled")
	}
}

func TestLoadConfig_NonexistentFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()

	invalidFile := filepath.Join(tmpDir, "invalid.yaml")
	err := os.WriteFile(invalidFile, []byte("submolt: [unclosed"), 0600)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	_, err = LoadConfig(invalidFile)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "cfg.yaml")
	if err := os.WriteFile(file, []byte("agents_file: agents.json\n"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	t.Setenv("MOLTBOOK_BASE_URL", "http://localhost:9999/api/v1")

	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MoltbookBaseURL != "http://localhost:9999/api/v1" {
		t.Errorf("expected env override, got %s", cfg.MoltbookBaseURL)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := Default()
	bad.Schedule.SuccessJitterMin = Duration(10 * time.Minute)
	bad.Schedule.SuccessJitterMax = Duration(time.Minute)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for inverted jitter bounds")
	}

	bad = Default()
	bad.Runtime.TraceExporter = "jaeger"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown trace exporter")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.yaml")

	cfg := Default()
	cfg.Tick = "MOLT"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Tick != "MOLT" {
		t.Errorf("expected tick 'MOLT', got %s", loaded.Tick)
	}
}
