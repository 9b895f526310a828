package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"idlemark/internal/marker"
)

// MaxTimeoutMinutes is the largest timeout whose millisecond value fits the
// protocol's uint32 argument.
const MaxTimeoutMinutes = math.MaxUint32 / 60000

// Backend names accepted by the Backend setting
const (
	BackendAuto    = "auto"
	BackendWayland = "wayland"
	BackendX11     = "x11"
)

// Config holds all application configuration
type Config struct {
	// Idle tracking configuration
	Idle IdleConfig `toml:"idle"`

	// Display server backend selection
	Backend string `toml:"backend"`

	// Daemon configuration
	Daemon DaemonConfig `toml:"daemon"`

	// Metrics textfile configuration
	Metrics MetricsConfig `toml:"metrics"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// IdleConfig holds the idle timeout and the marker file
type IdleConfig struct {
	TimeoutMinutes uint32 `toml:"timeout_minutes"` // Idle time before the marker is created
	File           string `toml:"file"`            // Marker file path
	OnConflict     string `toml:"on_conflict"`     // "strict" or "heal"
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `toml:"pid_file"` // Path to PID file for daemon management
}

// MetricsConfig holds the Prometheus textfile configuration
type MetricsConfig struct {
	TextfilePath string `toml:"textfile"` // Empty disables the textfile
}

// LogConfig holds logging configuration
type LogConfig struct {
	File string `toml:"file"` // Empty logs to stderr
}

// Default returns a Config with sensible default values. The timeout and the
// marker file have no defaults and must be supplied.
func Default() *Config {
	return &Config{
		Idle: IdleConfig{
			OnConflict: string(marker.ModeStrict),
		},
		Backend: BackendAuto,
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/idlemark-%d.pid", os.Getuid()),
		},
	}
}

// LoadFile overlays the TOML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Idle.TimeoutMinutes == 0 {
		return fmt.Errorf("idle timeout is required and must be at least 1 minute")
	}

	if c.Idle.TimeoutMinutes > MaxTimeoutMinutes {
		return fmt.Errorf("idle timeout cannot be greater than %d minutes, got %d",
			MaxTimeoutMinutes, c.Idle.TimeoutMinutes)
	}

	if c.Idle.File == "" {
		return fmt.Errorf("marker file path is required")
	}

	if _, err := marker.ParseMode(c.Idle.OnConflict); err != nil {
		return err
	}

	switch c.Backend {
	case BackendAuto, BackendWayland, BackendX11:
	default:
		return fmt.Errorf("unknown backend %q (want auto, wayland or x11)", c.Backend)
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetTimeoutMinutes sets the idle timeout with validation
func (c *Config) SetTimeoutMinutes(minutes uint32) error {
	if minutes == 0 {
		return fmt.Errorf("idle timeout must be at least 1 minute")
	}
	if minutes > MaxTimeoutMinutes {
		return fmt.Errorf("idle timeout cannot be greater than %d minutes", MaxTimeoutMinutes)
	}
	c.Idle.TimeoutMinutes = minutes
	return nil
}

// SetBackend sets the backend with validation
func (c *Config) SetBackend(backend string) error {
	switch backend {
	case BackendAuto, BackendWayland, BackendX11:
		c.Backend = backend
		return nil
	}
	return fmt.Errorf("unknown backend %q (want auto, wayland or x11)", backend)
}

// Timeout returns the idle timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Idle.TimeoutMinutes) * time.Minute
}

// TimeoutMillis returns the idle timeout as sent on the wire
func (c *Config) TimeoutMillis() uint32 {
	return c.Idle.TimeoutMinutes * 60 * 1000
}

// MarkerMode returns the parsed conflict mode, strict when unset or invalid
func (c *Config) MarkerMode() marker.Mode {
	mode, err := marker.ParseMode(c.Idle.OnConflict)
	if err != nil {
		return marker.ModeStrict
	}
	return mode
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Idle:
    Timeout: %v (%dms)
    Marker File: %s
    On Conflict: %s
  Backend: %s
  Daemon:
    PID File: %s
  Metrics:
    Textfile: %s
  Log:
    File: %s`,
		c.Timeout(),
		c.TimeoutMillis(),
		c.Idle.File,
		c.Idle.OnConflict,
		c.Backend,
		c.Daemon.PIDFile,
		c.Metrics.TextfilePath,
		c.Log.File,
	)
}
