package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
endpoint_name = "gamebridge-test"
log_level = "debug"
click_window_ms = 350
connect_attempts = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EndpointName != "gamebridge-test" {
		t.Errorf("EndpointName = %q", cfg.EndpointName)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.ClickWindow() != 350*time.Millisecond {
		t.Errorf("ClickWindow = %v", cfg.ClickWindow())
	}
	if cfg.ConnectAttempts != 3 {
		t.Errorf("ConnectAttempts = %d", cfg.ConnectAttempts)
	}
	// Untouched fields keep defaults.
	if cfg.CaptureGapFloor() != DefaultCaptureGapFloor {
		t.Errorf("CaptureGapFloor = %v", cfg.CaptureGapFloor())
	}
}

func TestLoadNormalizesNonsenseValues(t *testing.T) {
	path := writeConfig(t, `
endpoint_name = ""
click_window_ms = -5
connect_attempts = 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EndpointName != DefaultEndpointName {
		t.Errorf("EndpointName = %q", cfg.EndpointName)
	}
	if cfg.ClickWindow() != DefaultDisambiguationWindow {
		t.Errorf("ClickWindow = %v", cfg.ClickWindow())
	}
	if cfg.ConnectAttempts != DefaultConnectAttempts {
		t.Errorf("ConnectAttempts = %d", cfg.ConnectAttempts)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `click_window_ms = [not toml`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed TOML")
	}
}
