package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"xfeedback/pkg/logger"
)

// Config holds all configuration for the feedback pipeline. It is constructed
// once and passed explicitly; nothing reads it through package state.
type Config struct {
	// X API access
	API APIConfig `yaml:"api" json:"api"`

	// Fetch loop tuning
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Retry and rate-limit policy for the transport
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Local database
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Web dashboard
	Dashboard DashboardConfig `yaml:"dashboard" json:"dashboard"`

	// Insights report generation
	Insights InsightsConfig `yaml:"insights" json:"insights"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// APIConfig holds X API v2 settings
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	BearerToken string        `yaml:"bearer_token" json:"bearer_token"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// FetchConfig bounds a single ingestion run
type FetchConfig struct {
	PageSize       int           `yaml:"page_size" json:"page_size"`
	MaxPages       int           `yaml:"max_pages" json:"max_pages"`
	InterPageDelay time.Duration `yaml:"inter_page_delay" json:"inter_page_delay"`
	// RequestsPerMinute feeds the token-bucket pacer between pages.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds the transport failure policy
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// BaseDelay seeds the exponential backoff for transport-level failures.
	BaseDelay time.Duration `yaml:"base_delay" json:"base_delay"`
	// RateLimitCeiling is the longest the transport will sleep for a 429
	// reset before giving up on the page with rate_limit_skip.
	RateLimitCeiling time.Duration `yaml:"rate_limit_ceiling" json:"rate_limit_ceiling"`
	// RateLimitMargin is added to the server-provided reset time.
	RateLimitMargin time.Duration `yaml:"rate_limit_margin" json:"rate_limit_margin"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// DashboardConfig holds web dashboard settings
type DashboardConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	// ParentIDs are the tracked posts the dashboard aggregates by default.
	ParentIDs []string `yaml:"parent_ids" json:"parent_ids"`
}

// InsightsConfig holds report generation settings
type InsightsConfig struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key" json:"anthropic_api_key"`
	Model           string `yaml:"model" json:"model"`
	OutputDir       string `yaml:"output_dir" json:"output_dir"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.twitter.com/2",
			Timeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			PageSize:          100,
			MaxPages:          50,
			InterPageDelay:    time.Second,
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			MaxAttempts:      3,
			BaseDelay:        5 * time.Second,
			RateLimitCeiling: 120 * time.Second,
			RateLimitMargin:  5 * time.Second,
		},
		Database: DatabaseConfig{
			Path: filepath.Join("data", "feedback.db"),
		},
		Dashboard: DashboardConfig{
			ListenAddr: "localhost:8765",
		},
		Insights: InsightsConfig{
			Model:     "claude-sonnet-4-20250514",
			OutputDir: "output",
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// Load builds the configuration in layers: defaults, then an optional YAML
// file, then environment variables (including a .env file in the working
// directory), then command-line flag overrides.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. An empty path tries the
// default locations and is not an error when nothing is found.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables, reading a .env
// file first when present.
func (c *Config) LoadFromEnv() error {
	// Missing .env is the common case and not an error.
	_ = godotenv.Load()

	if token := os.Getenv("X_BEARER_TOKEN"); token != "" {
		c.API.BearerToken = token
	}
	if base := os.Getenv("XFEEDBACK_API_BASE"); base != "" {
		c.API.BaseURL = base
	}
	if dbPath := os.Getenv("XFEEDBACK_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if addr := os.Getenv("XFEEDBACK_DASHBOARD_ADDR"); addr != "" {
		c.Dashboard.ListenAddr = addr
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Insights.AnthropicAPIKey = key
	}
	if level := os.Getenv("XFEEDBACK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if pages := os.Getenv("XFEEDBACK_MAX_PAGES"); pages != "" {
		if val, err := strconv.Atoi(pages); err == nil && val > 0 {
			c.Fetch.MaxPages = val
		}
	}
	if rpm := os.Getenv("XFEEDBACK_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.Fetch.RequestsPerMinute = val
		}
	}
	return nil
}

// ApplyFlags overrides configuration from command-line flags
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "db":
			if v, ok := value.(string); ok && v != "" {
				c.Database.Path = v
			}
		case "max-pages":
			if v, ok := value.(int); ok && v > 0 {
				c.Fetch.MaxPages = v
			}
		case "page-size":
			if v, ok := value.(int); ok && v > 0 {
				c.Fetch.PageSize = v
			}
		case "max-retries":
			if v, ok := value.(int); ok && v > 0 {
				c.Retry.MaxAttempts = v
			}
		case "listen":
			if v, ok := value.(string); ok && v != "" {
				c.Dashboard.ListenAddr = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Insights.OutputDir = v
			}
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if c.Fetch.PageSize < 10 || c.Fetch.PageSize > 100 {
		return fmt.Errorf("fetch.page_size must be between 10 and 100, got %d", c.Fetch.PageSize)
	}
	if c.Fetch.MaxPages <= 0 {
		return fmt.Errorf("fetch.max_pages must be positive, got %d", c.Fetch.MaxPages)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.RateLimitCeiling <= 0 {
		return errors.New("retry.rate_limit_ceiling must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	return nil
}

// RequireBearerToken fails when no transport credential is configured. Called
// by commands before any network activity.
func (c *Config) RequireBearerToken() error {
	if c.API.BearerToken == "" {
		return errors.New("X bearer token not configured: run 'xfeedback auth login' or set X_BEARER_TOKEN")
	}
	return nil
}

// findConfigFile looks for a config file in default locations
func (c *Config) findConfigFile() string {
	candidates := []string{
		"xfeedback.yaml",
		filepath.Join(os.Getenv("HOME"), ".xfeedback.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xfeedback", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
