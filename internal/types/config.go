package types

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and LoadConfigFile for fatal configuration errors
var ErrInvalidConfig = errors.New("invalid configuration")

// FetchMode selects the page fetcher variant
type FetchMode string

const (
	ModeStatic   FetchMode = "static"
	ModeScripted FetchMode = "scripted"
)

// Config holds the configuration for one extraction run
type Config struct {
	Mode           FetchMode     `yaml:"mode"`
	Headless       bool          `yaml:"headless"`
	Timeout        time.Duration `yaml:"timeout"`
	WaitTimeout    time.Duration `yaml:"wait_timeout"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`

	Workers    int           `yaml:"workers"`
	RateLimit  float64       `yaml:"rate_limit"`
	DelayMin   time.Duration `yaml:"delay_min"`
	DelayMax   time.Duration `yaml:"delay_max"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Limit      int           `yaml:"limit"`

	GenericEmailThreshold int    `yaml:"generic_email_threshold"`
	CheckpointEvery       int    `yaml:"checkpoint_every"`
	OutputDir             string `yaml:"output_dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Mode:                  ModeStatic,
		Headless:              true,
		Timeout:               20 * time.Second,
		WaitTimeout:           15 * time.Second,
		UserAgent:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage:        "fr-FR,fr;q=0.9,en-US;q=0.6,en;q=0.4",
		Workers:               1,
		RateLimit:             10,
		DelayMin:              300 * time.Millisecond,
		DelayMax:              1000 * time.Millisecond,
		MaxRetries:            2,
		RetryDelay:            2 * time.Second,
		GenericEmailThreshold: 50,
		CheckpointEvery:       100,
		OutputDir:             "output",
	}
}

// LoadConfigFile overlays the YAML file at path onto the defaults
func LoadConfigFile(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return config, nil
}

// Validate checks the bounds a run depends on
func (c *Config) Validate() error {
	switch {
	case c.Mode != ModeStatic && c.Mode != ModeScripted:
		return fmt.Errorf("%w: unknown fetch mode %q", ErrInvalidConfig, c.Mode)
	case c.Workers < 1 || c.Workers > 10:
		return fmt.Errorf("%w: workers must be within [1,10], got %d", ErrInvalidConfig, c.Workers)
	case c.Timeout < 10*time.Second || c.Timeout > 30*time.Second:
		return fmt.Errorf("%w: timeout must be within [10s,30s], got %v", ErrInvalidConfig, c.Timeout)
	case c.WaitTimeout < 10*time.Second || c.WaitTimeout > 20*time.Second:
		return fmt.Errorf("%w: wait timeout must be within [10s,20s], got %v", ErrInvalidConfig, c.WaitTimeout)
	case c.DelayMin < 0 || c.DelayMax < c.DelayMin:
		return fmt.Errorf("%w: invalid delay range [%v,%v]", ErrInvalidConfig, c.DelayMin, c.DelayMax)
	case c.RateLimit <= 0 || c.RateLimit > 10:
		return fmt.Errorf("%w: rate limit must be within (0,10] req/s, got %v", ErrInvalidConfig, c.RateLimit)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: negative retries", ErrInvalidConfig)
	case c.Limit < 0:
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	case c.GenericEmailThreshold < 2:
		return fmt.Errorf("%w: generic email threshold must be >= 2, got %d", ErrInvalidConfig, c.GenericEmailThreshold)
	case c.CheckpointEvery < 1:
		return fmt.Errorf("%w: checkpoint interval must be >= 1", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}
	return nil
}
