// Package config loads the application configuration from a TOML file.
// A missing file is not an error; defaults apply for every field the
// file omits.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultEndpointName         = "gamebridge"
	DefaultDisambiguationWindow = 500 * time.Millisecond
	DefaultConnectAttempts      = 6
	DefaultConnectBackoff       = 100 * time.Millisecond
	DefaultConnectBackoffMax    = 2 * time.Second
	DefaultCaptureGapFloor      = 10 * time.Millisecond
	DefaultCaptureCoalesceFloor = 50 * time.Millisecond
	DefaultLogLevel             = "info"
)

// Config is the application configuration shared by both processes.
// Durations are stored in whole milliseconds in the file.
type Config struct {
	// EndpointName names the local bus endpoint.
	EndpointName string `toml:"endpoint_name"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// ProfilesPath overrides where profiles are persisted.
	ProfilesPath string `toml:"profiles_path"`

	// ClickWindowMS is the click disambiguation window.
	ClickWindowMS int `toml:"click_window_ms"`

	// ConnectAttempts bounds client connect retries.
	ConnectAttempts int `toml:"connect_attempts"`

	// ConnectBackoffMS is the initial connect retry backoff.
	ConnectBackoffMS int `toml:"connect_backoff_ms"`

	// ConnectBackoffMaxMS caps the connect retry backoff.
	ConnectBackoffMaxMS int `toml:"connect_backoff_max_ms"`

	// CaptureGapFloorMS is the smallest inter-key gap recorded at all.
	CaptureGapFloorMS int `toml:"capture_gap_floor_ms"`

	// CaptureCoalesceFloorMS is the smallest gap stored as a delay event.
	CaptureCoalesceFloorMS int `toml:"capture_coalesce_floor_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		EndpointName:           DefaultEndpointName,
		LogLevel:               DefaultLogLevel,
		ProfilesPath:           DefaultProfilesPath(),
		ClickWindowMS:          int(DefaultDisambiguationWindow.Milliseconds()),
		ConnectAttempts:        DefaultConnectAttempts,
		ConnectBackoffMS:       int(DefaultConnectBackoff.Milliseconds()),
		ConnectBackoffMaxMS:    int(DefaultConnectBackoffMax.Milliseconds()),
		CaptureGapFloorMS:      int(DefaultCaptureGapFloor.Milliseconds()),
		CaptureCoalesceFloorMS: int(DefaultCaptureCoalesceFloor.Milliseconds()),
	}
}

// Load reads the config file at path over the defaults. A missing file
// returns the defaults with no error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// DefaultProfilesPath returns the conventional profiles file location.
func DefaultProfilesPath() string {
	return filepath.Join(configDir(), "profiles.json")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "gamebridge")
}

// normalize clamps nonsense values back to defaults.
func (c *Config) normalize() {
	d := Default()
	if c.EndpointName == "" {
		c.EndpointName = d.EndpointName
	}
	if c.ProfilesPath == "" {
		c.ProfilesPath = d.ProfilesPath
	}
	if c.ClickWindowMS <= 0 {
		c.ClickWindowMS = d.ClickWindowMS
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = d.ConnectAttempts
	}
	if c.ConnectBackoffMS <= 0 {
		c.ConnectBackoffMS = d.ConnectBackoffMS
	}
	if c.ConnectBackoffMaxMS <= 0 {
		c.ConnectBackoffMaxMS = d.ConnectBackoffMaxMS
	}
	if c.CaptureGapFloorMS <= 0 {
		c.CaptureGapFloorMS = d.CaptureGapFloorMS
	}
	if c.CaptureCoalesceFloorMS <= 0 {
		c.CaptureCoalesceFloorMS = d.CaptureCoalesceFloorMS
	}
}

// ClickWindow returns the disambiguation window as a duration.
func (c Config) ClickWindow() time.Duration {
	return time.Duration(c.ClickWindowMS) * time.Millisecond
}

// ConnectBackoff returns the initial retry backoff as a duration.
func (c Config) ConnectBackoff() time.Duration {
	return time.Duration(c.ConnectBackoffMS) * time.Millisecond
}

// ConnectBackoffMax returns the retry backoff cap as a duration.
func (c Config) ConnectBackoffMax() time.Duration {
	return time.Duration(c.ConnectBackoffMaxMS) * time.Millisecond
}

// CaptureGapFloor returns the capture gap floor as a duration.
func (c Config) CaptureGapFloor() time.Duration {
	return time.Duration(c.CaptureGapFloorMS) * time.Millisecond
}

// CaptureCoalesceFloor returns the capture coalesce floor as a duration.
func (c Config) CaptureCoalesceFloor() time.Duration {
	return time.Duration(c.CaptureCoalesceFloorMS) * time.Millisecond
}
