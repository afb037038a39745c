package app

import (
	"io"

	"fitbridge/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of FITBRIDGE_LOG_LEVEL.
	Debug bool

	// ConfigPath is an optional YAML config file.
	ConfigPath string

	// ListenAddr overrides the configured listen address when set.
	ListenAddr string

	// Environ replaces the process environment when non-nil.
	Environ map[string]string

	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer

	// FitbridgeConfig is the loaded configuration. When set before
	// NewApplication, loading is skipped.
	FitbridgeConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, listenAddr string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		ListenAddr: listenAddr,
	}
}
