package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.Equal(t, "default", cfg.Session.KnowledgeBase)
	assert.Equal(t, "realtime", cfg.Session.Clock)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
	assert.Equal(t, "rulesession", cfg.Tracing.ServiceName)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad clock", func(c *Config) { c.Session.Clock = "sundial" }, "session.clock"},
		{"empty knowledge base", func(c *Config) { c.Session.KnowledgeBase = " " }, "session.knowledge_base"},
		{"audit without path", func(c *Config) { c.Audit.Enabled = true }, "audit.path"},
		{"unknown event type", func(c *Config) { c.Audit.Types = []string{"object_exploded"} }, "audit.types"},
		{"bad metrics addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = "nope"
		}, "metrics.addr"},
		{"tracing without name", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.ServiceName = ""
		}, "tracing.service_name"},
		{"sample ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "tracing.sample_ratio"},
		{"negative max size", func(c *Config) { c.Logging.MaxSize = -1 }, "logging.max_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Session.Clock = "sundial"

	errs := NewValidator().ValidateConfig(cfg)
	assert.Len(t, errs, 2)

	joined := cfg.Validate()
	assert.Contains(t, joined.Error(), "invalid log level")
	assert.Contains(t, joined.Error(), "session.clock")
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, `"knowledge_base": "default"`)
	assert.Contains(t, s, `"service_name": "rulesession"`)
}
