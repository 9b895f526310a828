package config_test

import (
	"fmt"

	"idlemark/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Backend:", cfg.Backend)
	fmt.Println("On Conflict:", cfg.Idle.OnConflict)
	// Output:
	// Backend: auto
	// On Conflict: strict
}

// Example of setting the idle timeout with validation
func ExampleConfig_SetTimeoutMinutes() {
	cfg := config.Default()

	if err := cfg.SetTimeoutMinutes(5); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Timeout set to:", cfg.Timeout(), "=", cfg.TimeoutMillis(), "ms")
	}

	// Invalid timeout (zero)
	if err := cfg.SetTimeoutMinutes(0); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Timeout set to: 5m0s = 300000 ms
	// Error: idle timeout must be at least 1 minute
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	}

	cfg.Idle.TimeoutMinutes = 5
	cfg.Idle.File = "/tmp/idle"
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	// Output:
	// Invalid config: idle timeout is required and must be at least 1 minute
	// Configuration is valid
}
