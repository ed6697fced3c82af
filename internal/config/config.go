package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCheckInterval is the scheduler interval written into new configs.
// The tool itself never loops; the value is consumed by the launchd job
// that invokes `watch` periodically.
const DefaultCheckInterval = 60

// Config holds the tool's own configuration. It is loaded once per
// invocation and never mutated afterwards (except by the TUI picker,
// which saves an updated copy).
type Config struct {
	// TargetDisplay is the display name to reconcile against. Matching is
	// case-insensitive and allows partial names ("Virtual" matches
	// "Virtual 16:9"). Required for `watch`.
	TargetDisplay string `yaml:"target_display"`

	// NoAutoRestart suppresses the Sunshine restart after a config rewrite.
	NoAutoRestart bool `yaml:"no_auto_restart"`

	// CheckIntervalSeconds is the scheduler polling interval.
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`

	// SunshineConf overrides the path to Sunshine's own config file.
	// Default: ~/.config/sunshine/sunshine.conf
	SunshineConf string `yaml:"sunshine_conf,omitempty"`

	// ServiceNames overrides the brew service candidates checked when
	// restarting Sunshine, in preference order.
	// Default: [sunshine-beta, sunshine]
	ServiceNames []string `yaml:"service_names,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CheckIntervalSeconds: DefaultCheckInterval,
	}
}

// DefaultConfigPath returns ~/.config/sunshine-display/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sunshine-display", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults; `watch` rejects a missing target separately so that
// `list` and `service` work without any config at all.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.CheckIntervalSeconds == 0 {
		cfg.CheckIntervalSeconds = DefaultCheckInterval
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.CheckIntervalSeconds < 1 {
		return fmt.Errorf("check_interval_seconds must be >= 1, got %d", c.CheckIntervalSeconds)
	}
	for i, name := range c.ServiceNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("service_names[%d] is empty", i)
		}
	}
	return nil
}

// Save writes the configuration to path, or to the default location when
// path is empty, creating the config directory if needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveSunshineConf returns the path of Sunshine's config file, applying
// the built-in default when no override is configured.
func (c *Config) ResolveSunshineConf() (string, error) {
	if c.SunshineConf != "" {
		return expandHome(c.SunshineConf)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sunshine", "sunshine.conf"), nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}
