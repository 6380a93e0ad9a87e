package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/activitybar/pkg/idle"
)

// Output formats understood by the host.
const (
	OutputI3Bar = "i3bar"
	OutputTerm  = "term"
)

// Config holds all configuration for activitybar
type Config struct {
	// Timing
	Interval      time.Duration `yaml:"interval" env:"ACTIVITYBAR_INTERVAL"`
	ResetTime     time.Duration `yaml:"reset_time" env:"ACTIVITYBAR_RESET_TIME"`
	IdleThreshold time.Duration `yaml:"idle_threshold" env:"ACTIVITYBAR_IDLE_THRESHOLD"`

	// Idle source
	Provider    string `yaml:"provider" env:"ACTIVITYBAR_PROVIDER"`
	Display     string `yaml:"display" env:"DISPLAY"`
	TmuxSession string `yaml:"tmux_session" env:"ACTIVITYBAR_TMUX_SESSION"`

	// Host
	Output   string `yaml:"output" env:"ACTIVITYBAR_OUTPUT"`
	LogLevel string `yaml:"log_level" env:"ACTIVITYBAR_LOG_LEVEL"`
}

// fileConfig is the on-disk shape. Durations accept whole seconds or a
// duration string, so they decode into any.
type fileConfig struct {
	Interval      any     `yaml:"interval" toml:"interval"`
	ResetTime     any     `yaml:"reset_time" toml:"reset_time"`
	IdleThreshold any     `yaml:"idle_threshold" toml:"idle_threshold"`
	Provider      *string `yaml:"provider" toml:"provider"`
	Display       *string `yaml:"display" toml:"display"`
	TmuxSession   *string `yaml:"tmux_session" toml:"tmux_session"`
	Output        *string `yaml:"output" toml:"output"`
	LogLevel      *string `yaml:"log_level" toml:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:      1 * time.Second,
		ResetTime:     300 * time.Second,
		IdleThreshold: 10 * time.Second,
		Provider:      string(idle.ProviderAuto),
		Output:        OutputI3Bar,
		LogLevel:      "info",
	}
}

// Load loads configuration from the default file location and environment
func Load() (*Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFrom loads configuration from path, then the environment.
// A missing file leaves the defaults in place.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if path := os.Getenv("ACTIVITYBAR_CONFIG"); path != "" {
		return path
	}

	var dir string
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		dir = filepath.Join(xdgConfig, "activitybar")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "activitybar")
	} else {
		return ""
	}

	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, "config.yaml")
}

// loadFromFile loads configuration from a YAML or TOML file, picked by extension
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (flag, env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	}

	return fc.apply(cfg)
}

// apply copies every field set in the file onto cfg
func (fc *fileConfig) apply(cfg *Config) error {
	durations := []struct {
		key   string
		value any
		dst   *time.Duration
	}{
		{"interval", fc.Interval, &cfg.Interval},
		{"reset_time", fc.ResetTime, &cfg.ResetTime},
		{"idle_threshold", fc.IdleThreshold, &cfg.IdleThreshold},
	}
	for _, d := range durations {
		if d.value == nil {
			continue
		}
		v, err := parseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	strs := []struct {
		value *string
		dst   *string
	}{
		{fc.Provider, &cfg.Provider},
		{fc.Display, &cfg.Display},
		{fc.TmuxSession, &cfg.TmuxSession},
		{fc.Output, &cfg.Output},
		{fc.LogLevel, &cfg.LogLevel},
	}
	for _, s := range strs {
		if s.value != nil {
			*s.dst = *s.value
		}
	}

	return nil
}

// parseDuration accepts whole or fractional seconds as a number, a numeric
// string, or a Go duration string such as "5m".
func parseDuration(v any) (time.Duration, error) {
	switch n := v.(type) {
	case int:
		return secondsDuration(float64(n))
	case int64:
		return secondsDuration(float64(n))
	case uint64:
		return secondsDuration(float64(n))
	case float64:
		return secondsDuration(n)
	case string:
		s := strings.TrimSpace(n)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return secondsDuration(f)
		}
		return time.ParseDuration(s)
	default:
		return 0, fmt.Errorf("unsupported duration value %v (%T)", v, v)
	}
}

func secondsDuration(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || math.Abs(seconds) > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("duration %v seconds out of range", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"ACTIVITYBAR_INTERVAL", &cfg.Interval},
		{"ACTIVITYBAR_RESET_TIME", &cfg.ResetTime},
		{"ACTIVITYBAR_IDLE_THRESHOLD", &cfg.IdleThreshold},
	}
	for _, d := range durations {
		value := os.Getenv(d.name)
		if value == "" {
			continue
		}
		v, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if provider := os.Getenv("ACTIVITYBAR_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}

	if session := os.Getenv("ACTIVITYBAR_TMUX_SESSION"); session != "" {
		cfg.TmuxSession = session
	}

	if output := os.Getenv("ACTIVITYBAR_OUTPUT"); output != "" {
		cfg.Output = output
	}

	if level := os.Getenv("ACTIVITYBAR_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// An explicit display in the file wins over the session's DISPLAY
	if cfg.Display == "" {
		cfg.Display = os.Getenv("DISPLAY")
	}

	return nil
}

// Validate checks the configuration for values the block cannot run with
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	if c.ResetTime <= 0 {
		return fmt.Errorf("reset_time must be positive")
	}

	if c.IdleThreshold <= 0 {
		return fmt.Errorf("idle_threshold must be positive")
	}

	if c.IdleThreshold > c.ResetTime {
		return fmt.Errorf("idle_threshold (%v) must not exceed reset_time (%v)", c.IdleThreshold, c.ResetTime)
	}

	provider, err := idle.ParseProvider(c.Provider)
	if err != nil {
		return err
	}
	c.Provider = string(provider)

	switch c.Output {
	case OutputI3Bar, OutputTerm:
	default:
		return fmt.Errorf("unknown output %q (use %s or %s)", c.Output, OutputI3Bar, OutputTerm)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	return nil
}

// MarshalYAML writes durations as duration strings
func (c Config) MarshalYAML() (interface{}, error) {
	return struct {
		Interval      string `yaml:"interval"`
		ResetTime     string `yaml:"reset_time"`
		IdleThreshold string `yaml:"idle_threshold"`
		Provider      string `yaml:"provider"`
		Display       string `yaml:"display,omitempty"`
		TmuxSession   string `yaml:"tmux_session,omitempty"`
		Output        string `yaml:"output"`
		LogLevel      string `yaml:"log_level"`
	}{
		Interval:      c.Interval.String(),
		ResetTime:     c.ResetTime.String(),
		IdleThreshold: c.IdleThreshold.String(),
		Provider:      c.Provider,
		Display:       c.Display,
		TmuxSession:   c.TmuxSession,
		Output:        c.Output,
		LogLevel:      c.LogLevel,
	}, nil
}
