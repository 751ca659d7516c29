package config

import (
	"fmt"
	"net"
	"path/filepath"
	"slices"
	"strings"

	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
)

var validLevels = []string{"debug", "info", "warn", "error"}

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	if slices.Contains(validLevels, level) {
		return nil
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateClock validates the session clock type.
func (v *Validator) ValidateClock(clock string) error {
	if _, err := engine.ParseClockType(clock); err != nil {
		return fmt.Errorf("session.clock: %w", err)
	}
	return nil
}

// ValidateEventTypes validates audit event type filters.
func (v *Validator) ValidateEventTypes(types []string) error {
	for _, t := range types {
		if _, err := event.ParseType(t); err != nil {
			return fmt.Errorf("audit.types: %w", err)
		}
	}
	return nil
}

// ValidateAddr validates a host:port listen address.
func (v *Validator) ValidateAddr(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}

// ValidatePath rejects empty and relative-to-nothing paths.
func (v *Validator) ValidatePath(field, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if filepath.Clean(path) == "." {
		return fmt.Errorf("%s: invalid path %q", field, path)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("logging.max_age must be >= 0"))
	}

	if err := v.ValidateClock(cfg.Session.Clock); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.Session.KnowledgeBase) == "" {
		errs = append(errs, fmt.Errorf("session.knowledge_base is required"))
	}
	for i, ep := range cfg.Session.EntryPoints {
		if strings.TrimSpace(ep) == "" {
			errs = append(errs, fmt.Errorf("session.entry_points[%d] is empty", i))
		}
	}

	if cfg.Audit.Enabled {
		if err := v.ValidatePath("audit.path", cfg.Audit.Path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := v.ValidateEventTypes(cfg.Audit.Types); err != nil {
		errs = append(errs, err)
	}

	if cfg.Metrics.Enabled {
		if err := v.ValidateAddr(cfg.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.addr: %w", err))
		}
	}
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		errs = append(errs, fmt.Errorf("tracing.service_name is required when tracing is enabled"))
	}
	if r := cfg.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", r))
	}

	return errs
}
