package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/knapsack-packer/internal/knapsack"
	"github.com/eugenenazirov/knapsack-packer/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultMaxCapacity    = 10_000
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	InitialItems         []knapsack.Item
	MaxCapacity          int
	MaxItems             int
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
// Pointer fields distinguish "absent" from an explicit zero value.
type yamlConfig struct {
	Port                 string          `yaml:"port"`
	LogLevel             string          `yaml:"log_level"`
	Items                []knapsack.Item `yaml:"items"`
	MaxCapacity          *int            `yaml:"max_capacity"`
	MaxItems             *int            `yaml:"max_items"`
	ShutdownGracePeriod  string          `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string          `yaml:"read_header_timeout"`
	WriteTimeout         string          `yaml:"write_timeout"`
	IdleTimeout          string          `yaml:"idle_timeout"`
	EnableRequestLogging *bool           `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit   `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	ItemsStr       *string
	MaxCapacity    *int
	MaxItems       *int
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		InitialItems:         storage.DefaultItems(),
		MaxCapacity:          defaultMaxCapacity,
		MaxItems:             storage.DefaultMaxItems,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.Items != nil {
		cfg.InitialItems = knapsack.Join(knapsack.Split(yamlCfg.Items))
	}

	if yamlCfg.MaxCapacity != nil {
		cfg.MaxCapacity = *yamlCfg.MaxCapacity
	}

	if yamlCfg.MaxItems != nil {
		cfg.MaxItems = *yamlCfg.MaxItems
	}

	durations := []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod, "shutdown_grace_period"},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout, "read_header_timeout"},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout, "idle_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.target = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rawItems := strings.TrimSpace(os.Getenv("ITEMS")); rawItems != "" {
		if items, err := ParseItems(rawItems); err == nil {
			cfg.InitialItems = items
		}
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_CAPACITY")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.MaxCapacity = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_ITEMS")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxItems = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.ItemsStr != nil && *overrides.ItemsStr != "" {
		items, err := ParseItems(*overrides.ItemsStr)
		if err != nil {
			return fmt.Errorf("parse items: %w", err)
		}
		cfg.InitialItems = items
	}

	if overrides.MaxCapacity != nil && *overrides.MaxCapacity >= 0 {
		cfg.MaxCapacity = *overrides.MaxCapacity
	}

	if overrides.MaxItems != nil && *overrides.MaxItems > 0 {
		cfg.MaxItems = *overrides.MaxItems
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxCapacity < 0 {
		return fmt.Errorf("max capacity must be >= 0")
	}
	if cfg.MaxItems <= 0 {
		return fmt.Errorf("max items must be > 0")
	}
	if len(cfg.InitialItems) > cfg.MaxItems {
		return fmt.Errorf("initial catalog has %d items, limit is %d", len(cfg.InitialItems), cfg.MaxItems)
	}
	for _, item := range cfg.InitialItems {
		if item.Weight < 0 || item.Value < 0 {
			return fmt.Errorf("item %d must have non-negative weight and value", item.Index)
		}
	}
	return nil
}

// ParseItems parses a comma-separated list of weight:value pairs, for example
// "2:3, 3:4". Entries are indexed in order of appearance.
func ParseItems(raw string) ([]knapsack.Item, error) {
	parts := strings.Split(raw, ",")
	items := make([]knapsack.Item, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		weightStr, valueStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("item %q must be weight:value", part)
		}
		weight, err := strconv.Atoi(strings.TrimSpace(weightStr))
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q", part)
		}
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q", part)
		}
		if weight < 0 || value < 0 {
			return nil, fmt.Errorf("item %q must be non-negative", part)
		}
		items = append(items, knapsack.Item{Index: len(items), Weight: weight, Value: value})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no items provided")
	}
	return items, nil
}
