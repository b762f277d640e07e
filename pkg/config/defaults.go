package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultGrouping       = "inferred"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultOutputFormat   = "text"
	DefaultServerAddr     = "127.0.0.1:8080"
	DefaultWebhookTimeout = 10 * time.Second

	// FilterTimeLayout is the layout of filter.from and filter.to.
	FilterTimeLayout = "02.01.2006 15:04:05"
)

// Environment variable names.
const (
	EnvLogLevel = "TANKLOG_LOG_LEVEL"
	EnvGrouping = "TANKLOG_GROUPING"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources: []string{},
		Grouping:   DefaultGrouping,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if grouping := os.Getenv(EnvGrouping); grouping != "" {
		c.Grouping = grouping
	}
}
