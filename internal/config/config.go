package config

import (
	"encoding/json"
	"errors"
)

// Config is the rulesession tool configuration.
type Config struct {
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Session SessionConfig `json:"session" mapstructure:"session"`
	Audit   AuditConfig   `json:"audit" mapstructure:"audit"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// DataDir holds the audit database and log file by default.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// SessionConfig configures the sessions the CLI creates.
type SessionConfig struct {
	KnowledgeBase         string   `json:"knowledge_base" mapstructure:"knowledge_base"`
	Clock                 string   `json:"clock" mapstructure:"clock"` // realtime, pseudo
	DisableProcessRuntime bool     `json:"disable_process_runtime" mapstructure:"disable_process_runtime"`
	EntryPoints           []string `json:"entry_points" mapstructure:"entry_points"`
}

// AuditConfig configures the SQLite event audit log.
type AuditConfig struct {
	Enabled bool     `json:"enabled" mapstructure:"enabled"`
	Path    string   `json:"path" mapstructure:"path"`
	Types   []string `json:"types" mapstructure:"types"` // empty records every type
	// File receives JSON lines for session and command audit records.
	File string `json:"file" mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
	ServiceName string  `json:"service_name" mapstructure:"service_name"`
	SampleRatio float64 `json:"sample_ratio" mapstructure:"sample_ratio"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Session: SessionConfig{
			KnowledgeBase: "default",
			Clock:         "realtime",
		},
		Audit: AuditConfig{
			Enabled: false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "rulesession",
			SampleRatio: 1,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate reports every invalid value.
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
