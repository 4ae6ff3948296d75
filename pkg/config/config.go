package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// maxConfigSize caps how much of a config file we are willing to parse.
const maxConfigSize = 1 << 20 // 1MB

// Default endpoints for the public services.
const (
	DefaultMoltbookBaseURL = "https://www.moltbook.com/api/v1"
	DefaultIndexerBaseURL  = "https://mbc20.xyz/api"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m"
// or "90s". A bare integer is taken as seconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config represents the application configuration
type Config struct {
	// API endpoints
	MoltbookBaseURL string `yaml:"moltbook_base_url"`
	IndexerBaseURL  string `yaml:"indexer_base_url"`

	// Mint parameters
	Submolt    string `yaml:"submolt"`
	Tick       string `yaml:"tick"`
	MintAmount string `yaml:"mint_amount"`

	// AgentsFile is the path to the JSON credential roster
	AgentsFile string `yaml:"agents_file"`

	// HTTPPort serves /metrics and /health
	HTTPPort int `yaml:"http_port"`

	Schedule ScheduleConfig `yaml:"schedule"`
	Recovery RecoveryConfig `yaml:"recovery"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
}

// ScheduleConfig overrides the mint loop sleep constants
type ScheduleConfig struct {
	SuccessSleep      Duration `yaml:"success_sleep"`
	SuccessJitterMin  Duration `yaml:"success_jitter_min"`
	SuccessJitterMax  Duration `yaml:"success_jitter_max"`
	UnknownRetry      Duration `yaml:"unknown_retry"`
	RateLimitFallback Duration `yaml:"rate_limit_fallback"`
	SecondsHintBuffer Duration `yaml:"seconds_hint_buffer"`
	MinutesHintBuffer Duration `yaml:"minutes_hint_buffer"`
}

// RecoveryConfig controls the indexer recovery loop
type RecoveryConfig struct {
	Interval Duration `yaml:"interval"`
	Stagger  Duration `yaml:"stagger"`
}

// RuntimeConfig holds runtime configuration
type RuntimeConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	DisableMetrics    bool    `yaml:"disable_metrics"`
	TraceExporter     string  `yaml:"trace_exporter"` // otlp, stdout, none
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	// Endpoint overrides from environment when the config file is silent
	if v := os.Getenv("MOLTBOOK_BASE_URL"); v != "" && cfg.MoltbookBaseURL == DefaultMoltbookBaseURL {
		cfg.MoltbookBaseURL = v
	}
	if v := os.Getenv("MBC20_INDEXER_URL"); v != "" && cfg.IndexerBaseURL == DefaultIndexerBaseURL {
		cfg.IndexerBaseURL = v
	}

	return &cfg, nil
}

// Default returns a configuration with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MoltbookBaseURL == "" {
		c.MoltbookBaseURL = DefaultMoltbookBaseURL
	}
	if c.IndexerBaseURL == "" {
		c.IndexerBaseURL = DefaultIndexerBaseURL
	}
	if c.Submolt == "" {
		c.Submolt = "mbc-20"
	}
	if c.Tick == "" {
		c.Tick = "CLAW"
	}
	if c.MintAmount == "" {
		c.MintAmount = "100"
	}
	if c.AgentsFile == "" {
		c.AgentsFile = "copy.json"
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.Schedule.SuccessSleep == 0 {
		c.Schedule.SuccessSleep = Duration(2 * time.Hour)
	}
	if c.Schedule.SuccessJitterMin == 0 {
		c.Schedule.SuccessJitterMin = Duration(time.Minute)
	}
	if c.Schedule.SuccessJitterMax == 0 {
		c.Schedule.SuccessJitterMax = Duration(5 * time.Minute)
	}
	if c.Schedule.UnknownRetry == 0 {
		c.Schedule.UnknownRetry = Duration(time.Minute)
	}
	if c.Schedule.RateLimitFallback == 0 {
		c.Schedule.RateLimitFallback = Duration(120 * time.Minute)
	}
	if c.Schedule.SecondsHintBuffer == 0 {
		c.Schedule.SecondsHintBuffer = Duration(5 * time.Second)
	}
	if c.Schedule.MinutesHintBuffer == 0 {
		c.Schedule.MinutesHintBuffer = Duration(30 * time.Second)
	}
	if c.Recovery.Interval == 0 {
		c.Recovery.Interval = Duration(5 * time.Minute)
	}
	if c.Recovery.Stagger == 0 {
		c.Recovery.Stagger = Duration(10 * time.Second)
	}
	if c.Runtime.RequestsPerSecond == 0 {
		c.Runtime.RequestsPerSecond = 1
	}
	if c.Runtime.Burst == 0 {
		c.Runtime.Burst = 1
	}
	if c.Runtime.TraceExporter == "" {
		c.Runtime.TraceExporter = "none"
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MoltbookBaseURL == "" {
		return fmt.Errorf("moltbook_base_url is required")
	}
	if c.IndexerBaseURL == "" {
		return fmt.Errorf("indexer_base_url is required")
	}
	if c.AgentsFile == "" {
		return fmt.Errorf("agents_file is required")
	}
	if c.Schedule.SuccessJitterMax < c.Schedule.SuccessJitterMin {
		return fmt.Errorf("success_jitter_max must be >= success_jitter_min")
	}
	if c.Runtime.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	switch c.Runtime.TraceExporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("trace_exporter must be one of otlp, stdout, none")
	}
	return nil
}
