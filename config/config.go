package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration loaded from a YAML file.
// Zero values fall back to the defaults in defaults.go.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Limits LimitsConfig `yaml:"limits"`
	Sample SampleConfig `yaml:"sample"`
}

type ServerConfig struct {
	Listen         string `yaml:"listen"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type LimitsConfig struct {
	MaxConcurrentRequests   int           `yaml:"max_concurrent_requests"`
	MaxConcurrentIngestions int           `yaml:"max_concurrent_ingestions"`
	OperationTimeout        time.Duration `yaml:"operation_timeout"`
	AcquireRequestTimeout   time.Duration `yaml:"acquire_request_timeout"`
}

// SampleConfig bounds the synthesized dataset; months are "2006-01".
type SampleConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Default returns a Config populated entirely from defaults.go.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML config file, applying defaults for any
// unset fields.
func Load(path string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	if _, _, err := config.SampleRange(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListenAddr
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Limits.MaxConcurrentRequests <= 0 {
		c.Limits.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if c.Limits.MaxConcurrentIngestions <= 0 {
		c.Limits.MaxConcurrentIngestions = DefaultMaxConcurrentIngestions
	}
	if c.Limits.OperationTimeout <= 0 {
		c.Limits.OperationTimeout = DefaultOperationTimeout
	}
	if c.Limits.AcquireRequestTimeout <= 0 {
		c.Limits.AcquireRequestTimeout = DefaultAcquireRequestTimeout
	}
	if c.Sample.Start == "" {
		c.Sample.Start = DefaultSampleStart
	}
	if c.Sample.End == "" {
		c.Sample.End = DefaultSampleEnd
	}
}

// SampleRange parses the configured sample months and validates ordering.
func (c *Config) SampleRange() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01", c.Sample.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: invalid sample start %q: %w", c.Sample.Start, err)
	}
	end, err = time.Parse("2006-01", c.Sample.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: invalid sample end %q: %w", c.Sample.End, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("config: sample end %q precedes start %q", c.Sample.End, c.Sample.Start)
	}
	return start, end, nil
}
