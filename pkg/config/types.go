// Package config provides configuration loading and validation for tanklog.
package config

import (
	"time"

	"github.com/ccollicutt/tanklog/pkg/dataset"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	LogSources []string        `yaml:"log_sources"`
	Grouping   string          `yaml:"grouping,omitempty"`
	Filter     FilterConfig    `yaml:"filter,omitempty"`
	Logging    LoggingConfig   `yaml:"logging,omitempty"`
	Output     OutputConfig    `yaml:"output,omitempty"`
	Server     ServerConfig    `yaml:"server,omitempty"`
	Webhooks   []WebhookConfig `yaml:"webhooks,omitempty"`

	// groupingPolicy is the parsed Grouping (populated during validation).
	groupingPolicy parser.GroupingPolicy
}

// GroupingPolicy returns the parsed grouping policy.
func (c *Config) GroupingPolicy() parser.GroupingPolicy {
	if c.groupingPolicy == nil {
		return parser.InferredColumn{}
	}
	return c.groupingPolicy
}

// FilterConfig restricts the reported samples.
type FilterConfig struct {
	// From and To bound the sample timestamps, inclusive, written as
	// "dd.MM.yyyy HH:mm:ss".
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Min and Max bound the sample values, inclusive.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// bounds is the parsed filter (populated during validation).
	bounds dataset.Bounds
}

// Bounds returns the parsed filter bounds.
func (f *FilterConfig) Bounds() dataset.Bounds {
	return f.bounds
}

// LoggingConfig controls diagnostic output on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console, json
}

// OutputConfig controls the report written to stdout.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // text, json, csv
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnSamples fires only when samples were extracted (default).
	WebhookTriggerOnSamples WebhookTrigger = "on_samples"
	// WebhookTriggerAlways fires after every parse.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending parse reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_samples" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
