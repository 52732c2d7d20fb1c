package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the audience pipeline
type Config struct {
	// Scraping backend credentials and tuning
	Apify ApifyConfig `yaml:"apify" json:"apify"`

	// AI fallback classification
	AI AIConfig `yaml:"ai" json:"ai"`

	// Rate limiting and per-run call budget
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Candidate filtering policy
	Filter FilterConfig `yaml:"filter" json:"filter"`

	// Cache persistence
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Result artifacts
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ApifyConfig holds scraping-backend configuration
type ApifyConfig struct {
	APIToken     string        `yaml:"api_token" json:"api_token"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
}

// AIConfig holds the optional AI-classification fallback configuration
type AIConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Model   string        `yaml:"model" json:"model"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting and budget configuration
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
	CallBudget        int           `yaml:"call_budget" json:"call_budget"`
	ProbeWeight       int           `yaml:"probe_weight" json:"probe_weight"`
}

// FilterConfig holds candidate filtering policy
type FilterConfig struct {
	QualityThreshold int  `yaml:"quality_threshold" json:"quality_threshold"`
	IncludeUncertain bool `yaml:"include_uncertain" json:"include_uncertain"`
	MinPosts         int  `yaml:"min_posts" json:"min_posts"`
	Concurrency      int  `yaml:"concurrency" json:"concurrency"`
	FollowerLimit    int  `yaml:"follower_limit" json:"follower_limit"`
	CommentLimit     int  `yaml:"comment_limit" json:"comment_limit"`
}

// CacheConfig holds cache persistence configuration
type CacheConfig struct {
	Path            string        `yaml:"path" json:"path"`
	FreshnessWindow time.Duration `yaml:"freshness_window" json:"freshness_window"`
}

// OutputConfig holds result artifact configuration
type OutputConfig struct {
	ResultsDirectory string `yaml:"results_directory" json:"results_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Apify: ApifyConfig{
			BaseURL:      "https://api.apify.com",
			FetchTimeout: 60 * time.Second,
			MaxRetries:   3,
		},
		AI: AIConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com",
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 30,
			Window:            time.Minute,
			CallBudget:        200,
			ProbeWeight:       1,
		},
		Filter: FilterConfig{
			QualityThreshold: 50,
			IncludeUncertain: false,
			MinPosts:         1,
			Concurrency:      5,
			FollowerLimit:    100,
			CommentLimit:     50,
		},
		Cache: CacheConfig{
			Path:            "./icpscout.db",
			FreshnessWindow: 24 * time.Hour,
		},
		Output: OutputConfig{
			ResultsDirectory: "./results",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("ICPSCOUT_APIFY_TOKEN"); token != "" {
		c.Apify.APIToken = token
	}
	if key := os.Getenv("ICPSCOUT_AI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if v := os.Getenv("ICPSCOUT_AI_ENABLED"); v != "" {
		c.AI.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("ICPSCOUT_CALL_BUDGET"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			c.RateLimit.CallBudget = n
		}
	}
	if v := os.Getenv("ICPSCOUT_REQUESTS_PER_WINDOW"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			c.RateLimit.RequestsPerWindow = n
		}
	}
	if v := os.Getenv("ICPSCOUT_QUALITY_THRESHOLD"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n >= 0 {
			c.Filter.QualityThreshold = n
		}
	}
	if v := os.Getenv("ICPSCOUT_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("ICPSCOUT_RESULTS_DIR"); v != "" {
		c.Output.ResultsDirectory = v
	}
	if v := os.Getenv("ICPSCOUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".icpscout.yaml",
		".icpscout.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "icpscout", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".icpscout.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. A validation failure is the
// only fatal error class: it aborts a run before any external call is made.
func (c *Config) Validate() error {
	var errs []error

	if c.Apify.APIToken == "" {
		errs = append(errs, errors.New("scraping backend API token is required"))
	}
	if c.Apify.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Apify.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.AI.Enabled && c.AI.APIKey == "" {
		errs = append(errs, errors.New("AI API key is required when AI fallback is enabled"))
	}

	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("requests per window must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.CallBudget <= 0 {
		errs = append(errs, errors.New("call budget must be positive"))
	}
	if c.RateLimit.ProbeWeight <= 0 {
		errs = append(errs, errors.New("probe weight must be positive"))
	}
	if c.RateLimit.ProbeWeight > c.RateLimit.RequestsPerWindow {
		errs = append(errs, errors.New("probe weight cannot exceed requests per window"))
	}

	if c.Filter.QualityThreshold < 0 || c.Filter.QualityThreshold > 100 {
		errs = append(errs, errors.New("quality threshold must be between 0 and 100"))
	}
	if c.Filter.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if c.Filter.Concurrency > 20 {
		errs = append(errs, errors.New("concurrency should not exceed 20"))
	}

	if c.Cache.Path == "" {
		errs = append(errs, errors.New("cache path is required"))
	}
	if c.Cache.FreshnessWindow <= 0 {
		errs = append(errs, errors.New("cache freshness window must be positive"))
	}

	if c.Output.ResultsDirectory == "" {
		errs = append(errs, errors.New("results directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["apify-token"].(string); ok && token != "" {
		c.Apify.APIToken = token
	}
	if key, ok := flags["ai-key"].(string); ok && key != "" {
		c.AI.APIKey = key
	}
	if enabled, ok := flags["ai"].(bool); ok {
		c.AI.Enabled = enabled
	}
	if budget, ok := flags["budget"].(int); ok && budget > 0 {
		c.RateLimit.CallBudget = budget
	}
	if rpw, ok := flags["rate-limit"].(int); ok && rpw > 0 {
		c.RateLimit.RequestsPerWindow = rpw
	}
	if threshold, ok := flags["threshold"].(int); ok && threshold >= 0 {
		c.Filter.QualityThreshold = threshold
	}
	if uncertain, ok := flags["include-uncertain"].(bool); ok {
		c.Filter.IncludeUncertain = uncertain
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Filter.Concurrency = concurrency
	}
	if dir, ok := flags["results-dir"].(string); ok && dir != "" {
		c.Output.ResultsDirectory = dir
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".icpscout.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
