// Package config handles TOML and YAML configuration for awsinventory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Resource families a filter may exclude.
var knownTypes = map[string]bool{"ec2": true, "asg": true, "rds": true}

var (
	// ErrUnknownType is returned when filter.exclude_types names an unknown collector.
	ErrUnknownType = errors.New("unknown resource type")
	// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config is the root configuration structure.
type Config struct {
	AWS     AWSConfig     `toml:"aws" yaml:"aws"`
	Report  ReportConfig  `toml:"report" yaml:"report"`
	Scanner ScannerConfig `toml:"scanner" yaml:"scanner"`
	Filter  FilterConfig  `toml:"filter" yaml:"filter"`
	OTEL    OTELConfig    `toml:"otel" yaml:"otel"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// AWSConfig holds AWS provider settings.
type AWSConfig struct {
	HomeRegion     string   `toml:"home_region" yaml:"home_region"`
	Regions        []string `toml:"regions" yaml:"regions"`
	ExcludeRegions []string `toml:"exclude_regions" yaml:"exclude_regions"`
	Profile        string   `toml:"profile" yaml:"profile"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Path  string `toml:"path" yaml:"path"`
	S3URI string `toml:"s3_uri" yaml:"s3_uri"`
}

// ScannerConfig holds collection settings.
type ScannerConfig struct {
	Concurrency int           `toml:"concurrency" yaml:"concurrency"`
	TimeoutStr  string        `toml:"timeout" yaml:"timeout"`
	Timeout     time.Duration `toml:"-" yaml:"-"`
	Strict      bool          `toml:"strict" yaml:"strict"`
	Progress    bool          `toml:"progress" yaml:"progress"`
}

// FilterConfig holds resource filters.
type FilterConfig struct {
	ExcludeTypes []string          `toml:"exclude_types" yaml:"exclude_types"`
	IncludeTags  map[string]string `toml:"include_tags" yaml:"include_tags"`
	ExcludeTags  map[string]string `toml:"exclude_tags" yaml:"exclude_tags"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string        `toml:"endpoint" yaml:"endpoint"`
	Insecure    bool          `toml:"insecure" yaml:"insecure"`
	ServiceName string        `toml:"service_name" yaml:"service_name"`
	Traces      TracesConfig  `toml:"traces" yaml:"traces"`
	Metrics     MetricsConfig `toml:"metrics" yaml:"metrics"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `toml:"enabled" yaml:"enabled"`
	SampleRate float64 `toml:"sample_rate" yaml:"sample_rate"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Textfile string `toml:"textfile" yaml:"textfile"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a TOML or YAML config file.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := parseTimeout(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.HomeRegion == "" {
		cfg.AWS.HomeRegion = "us-east-1"
	}
	if cfg.Report.Path == "" {
		cfg.Report.Path = "data.xlsx"
	}
	if cfg.Scanner.Concurrency == 0 {
		cfg.Scanner.Concurrency = 1
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "awsinventory"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func parseTimeout(cfg *Config) error {
	if cfg.Scanner.TimeoutStr == "" {
		return nil
	}
	d, err := time.ParseDuration(cfg.Scanner.TimeoutStr)
	if err != nil {
		return fmt.Errorf("parse timeout %q: %w", cfg.Scanner.TimeoutStr, err)
	}
	cfg.Scanner.Timeout = d
	return nil
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if c.AWS.HomeRegion == "" {
		return fmt.Errorf("aws: home_region required")
	}
	if c.Report.Path == "" {
		return fmt.Errorf("report: path required")
	}
	if c.Report.S3URI != "" && !strings.HasPrefix(c.Report.S3URI, "s3://") {
		return fmt.Errorf("report: s3_uri must start with s3:// (got %q)", c.Report.S3URI)
	}
	if c.Scanner.Concurrency < 1 {
		return fmt.Errorf("scanner: concurrency must be at least 1 (got %d)", c.Scanner.Concurrency)
	}
	if c.Scanner.Timeout < 0 {
		return fmt.Errorf("scanner: timeout must not be negative (got %s)", c.Scanner.Timeout)
	}
	for _, t := range c.Filter.ExcludeTypes {
		if !knownTypes[t] {
			return fmt.Errorf("filter: %w %q", ErrUnknownType, t)
		}
	}
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log: format must be console or json (got %q)", c.Log.Format)
	}
	return nil
}
