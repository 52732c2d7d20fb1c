package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"icpscout/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage icpscout configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (ICPSCOUT_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'icpscout.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like API tokens are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "icpscout.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	exampleConfig := `# icpscout configuration file
#
# Environment variables prefixed with ICPSCOUT_ override these values.
# For example: ICPSCOUT_APIFY_TOKEN, ICPSCOUT_CALL_BUDGET

# Scraping backend
apify:
  # API token. Prefer 'icpscout auth set apify' or the
  # ICPSCOUT_APIFY_TOKEN environment variable over storing it here.
  api_token: ""

  # Timeout for a single actor call
  fetch_timeout: 60s

  # Retry attempts for transient failures
  max_retries: 3

# AI classification fallback (optional)
ai:
  enabled: false
  # api_key: prefer 'icpscout auth set ai' over storing it here
  api_key: ""
  model: "gpt-4o-mini"
  timeout: 30s

# Rate limiting and spend control
rate_limit:
  # Requests allowed per window
  requests_per_window: 30
  window: 1m

  # Maximum paid calls per run; the run degrades to partial results
  # instead of exceeding this
  call_budget: 200

  # Budget weight of a visibility probe
  probe_weight: 1

# Candidate filtering policy
filter:
  # Minimum quality score (0-100) to keep a candidate
  quality_threshold: 50

  # Keep candidates the classifier could not decide on
  include_uncertain: false

  # Ignore accounts with fewer posts than this
  min_posts: 1

  # Candidates evaluated in parallel
  concurrency: 5

  # Ingest limits per run
  follower_limit: 100
  comment_limit: 50

# Cache persistence
cache:
  path: "./icpscout.db"

  # How long a cached entity stays fresh
  freshness_window: 24h

# Result artifacts
output:
  results_directory: "./results"

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, stdout when empty)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your Apify token with 'icpscout auth set apify'")
	fmt.Println("2. Run 'icpscout config validate' to check the configuration")
	fmt.Println("3. Start filtering with 'icpscout run <brand>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	// Mask sensitive values before display
	displayCfg := *cfg
	displayCfg.Apify.APIToken = maskToken(displayCfg.Apify.APIToken)
	displayCfg.AI.APIKey = maskToken(displayCfg.AI.APIKey)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (ICPSCOUT_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			"icpscout.yaml",
			"icpscout.yml",
			".icpscout.yaml",
			".icpscout.yml",
			filepath.Join(os.Getenv("HOME"), ".icpscout.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "icpscout", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			return fmt.Errorf("no configuration file found, specify one with --config")
		}
	}

	fmt.Println("Validating configuration:", configFile)

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	var warnings []string
	var errors []string

	// Token presence is a warning here: it may come from the credential
	// store at run time.
	if cfg.Apify.APIToken == "" {
		warnings = append(warnings, "Apify API token not configured (stored credentials are checked at run time)")
	}
	if cfg.AI.Enabled && cfg.AI.APIKey == "" {
		warnings = append(warnings, "AI fallback enabled but no API key configured")
	}

	// Check paths
	if cfg.Output.ResultsDirectory != "" {
		if err := os.MkdirAll(cfg.Output.ResultsDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create results directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	// Check value ranges
	if cfg.Filter.QualityThreshold < 0 || cfg.Filter.QualityThreshold > 100 {
		errors = append(errors, "quality_threshold must be between 0 and 100")
	}
	if cfg.Filter.Concurrency < 1 || cfg.Filter.Concurrency > 50 {
		errors = append(errors, "concurrency must be between 1 and 50")
	}
	if cfg.RateLimit.RequestsPerWindow < 1 {
		errors = append(errors, "requests_per_window must be at least 1")
	}
	if cfg.RateLimit.CallBudget < 1 {
		errors = append(errors, "call_budget must be at least 1")
	}

	if len(errors) > 0 {
		fmt.Println("\nConfiguration has errors:")
		for _, e := range errors {
			fmt.Printf("  - %s\n", e)
		}
		return fmt.Errorf("configuration is invalid")
	}

	if len(warnings) > 0 {
		fmt.Println("\nConfiguration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Println("\nConfiguration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Call budget: %d paid calls per run\n", cfg.RateLimit.CallBudget)
	fmt.Printf("  Rate limit: %d requests per %s\n", cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Quality threshold: %d\n", cfg.Filter.QualityThreshold)
	fmt.Printf("  Cache: %s (fresh for %s)\n", cfg.Cache.Path, cfg.Cache.FreshnessWindow)
	fmt.Printf("  Results: %s\n", cfg.Output.ResultsDirectory)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
