package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xfeedback/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xfeedback configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'xfeedback.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like tokens are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# xfeedback configuration file
#
# Environment variables override file values:
# X_BEARER_TOKEN, ANTHROPIC_API_KEY, XFEEDBACK_DB_PATH,
# XFEEDBACK_DASHBOARD_ADDR, XFEEDBACK_LOG_LEVEL, XFEEDBACK_MAX_PAGES,
# XFEEDBACK_REQUESTS_PER_MINUTE

# X API access
api:
  base_url: "https://api.twitter.com/2"
  # Prefer 'xfeedback auth login' or X_BEARER_TOKEN over writing the
  # token into this file.
  bearer_token: ""
  timeout: 30s

# Fetch loop tuning
fetch:
  # Items per page, range 10-100
  page_size: 100
  # Page budget per stream per run
  max_pages: 50
  inter_page_delay: 1s
  requests_per_minute: 60

# Transport failure policy
retry:
  max_attempts: 3
  base_delay: 5s
  # Longest acceptable rate-limit wait before skipping
  rate_limit_ceiling: 120s
  rate_limit_margin: 5s

# Local database
database:
  path: "data/feedback.db"

# Web dashboard
dashboard:
  listen_addr: "localhost:8765"
  # Posts the dashboard aggregates by default
  parent_ids: []

# Insights report generation
insights:
  model: "claude-sonnet-4-20250514"
  output_dir: "output"

# Logging
logging:
  level: "info"
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "xfeedback.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "Configuration file already exists: %s\n", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write configuration file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig(nil)
	resolveBearerToken(cfg)

	masked := *cfg
	masked.API.BearerToken = maskSecret(cfg.API.BearerToken)
	masked.Insights.AnthropicAPIKey = maskSecret(cfg.Insights.AnthropicAPIKey)

	out, err := yaml.Marshal(&masked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(out))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration is valid.")
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
