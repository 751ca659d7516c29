package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "RULESESSION"
	configDirName  = ".rulesession"
	configFileName = "rulesession.json"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

func defaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	dir, err := defaultHome()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configFileName)
}

// newViper registers every default so RULESESSION_* variables override
// keys that are missing from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.redaction", d.Logging.Redaction)
	v.SetDefault("session.knowledge_base", d.Session.KnowledgeBase)
	v.SetDefault("session.clock", d.Session.Clock)
	v.SetDefault("session.disable_process_runtime", d.Session.DisableProcessRuntime)
	v.SetDefault("session.entry_points", d.Session.EntryPoints)
	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.path", d.Audit.Path)
	v.SetDefault("audit.types", d.Audit.Types)
	v.SetDefault("audit.file", d.Audit.File)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)
	v.SetDefault("data_dir", d.DataDir)
	return v
}

// Load reads the config file, if present, then environment overrides.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := applyPaths(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyPaths(cfg *Config) error {
	if cfg.DataDir == "" {
		dir, err := defaultHome()
		if err != nil {
			return err
		}
		cfg.DataDir = dir
	}
	if cfg.Audit.Enabled && cfg.Audit.Path == "" {
		cfg.Audit.Path = filepath.Join(cfg.DataDir, "audit.db")
	}
	return nil
}

// Save writes cfg as JSON to the loader path.
func (l *Loader) Save(cfg *Config) error {
	path := l.GetConfigPath()
	if path == "" {
		return fmt.Errorf("no config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.Set("logging", cfg.Logging)
	v.Set("session", cfg.Session)
	v.Set("audit", cfg.Audit)
	v.Set("metrics", cfg.Metrics)
	v.Set("tracing", cfg.Tracing)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
