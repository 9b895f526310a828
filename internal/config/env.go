package config

import (
	"os"
	"strconv"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default and file values
func LoadFromEnv(cfg *Config) {
	// Idle configuration
	if timeout := os.Getenv("IDLEMARK_TIMEOUT"); timeout != "" {
		if minutes, err := strconv.ParseUint(timeout, 10, 32); err == nil && minutes > 0 && minutes <= MaxTimeoutMinutes {
			cfg.Idle.TimeoutMinutes = uint32(minutes)
		}
	}

	if file := os.Getenv("IDLEMARK_FILE"); file != "" {
		cfg.Idle.File = file
	}

	if mode := os.Getenv("IDLEMARK_ON_CONFLICT"); mode != "" {
		cfg.Idle.OnConflict = mode
	}

	if backend := os.Getenv("IDLEMARK_BACKEND"); backend != "" {
		cfg.Backend = backend
	}

	// Daemon configuration
	if pidFile := os.Getenv("IDLEMARK_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Metrics configuration
	if textfile := os.Getenv("IDLEMARK_METRICS_FILE"); textfile != "" {
		cfg.Metrics.TextfilePath = textfile
	}

	if logFile := os.Getenv("IDLEMARK_LOG_FILE"); logFile != "" {
		cfg.Log.File = logFile
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}

// Load builds a Config from defaults, the optional TOML file at path, then
// the environment
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	LoadFromEnv(cfg)
	return cfg, nil
}
