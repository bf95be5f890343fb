package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xfeedback/pkg/auth"
	"xfeedback/pkg/config"
	"xfeedback/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xfeedback",
	Short: "Collect and analyze feedback from X post replies and quotes",
	Long: `xfeedback ingests the replies and quote posts of tracked X posts into a
local SQLite database, classifies them into actionable categories and
serves a live dashboard over the results.

Fetching is incremental: each run resumes from per-post watermarks, so
repeated runs only pull items that were not seen before. A backfill mode
walks backwards from the oldest stored item instead.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./xfeedback.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig builds the layered configuration, initializes logging and
// exits with a readable message when the configuration is invalid.
func loadConfig(flags map[string]interface{}) *config.Config {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// resolveBearerToken fills the API token from the credential store when
// neither environment nor config provided one.
func resolveBearerToken(cfg *config.Config) {
	if cfg.API.BearerToken != "" {
		return
	}
	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	if token, err := manager.Retrieve(auth.DefaultLabel); err == nil {
		cfg.API.BearerToken = token.Bearer
	}
}

// requireBearerToken resolves and validates transport credentials before
// any network activity, failing fast with a non-zero exit.
func requireBearerToken(cfg *config.Config) {
	resolveBearerToken(cfg)
	if err := cfg.RequireBearerToken(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
