package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.RateLimit.RequestsPerWindow != 30 {
		t.Errorf("Expected default requests per window to be 30, got %d", config.RateLimit.RequestsPerWindow)
	}

	if config.RateLimit.CallBudget != 200 {
		t.Errorf("Expected default call budget to be 200, got %d", config.RateLimit.CallBudget)
	}

	if config.Filter.QualityThreshold != 50 {
		t.Errorf("Expected default quality threshold to be 50, got %d", config.Filter.QualityThreshold)
	}

	if config.Filter.IncludeUncertain {
		t.Error("Expected uncertain candidates to be excluded by default")
	}

	if config.Cache.FreshnessWindow != 24*time.Hour {
		t.Errorf("Expected default freshness window to be 24h, got %v", config.Cache.FreshnessWindow)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("ICPSCOUT_APIFY_TOKEN", "test-apify-token")
	os.Setenv("ICPSCOUT_CALL_BUDGET", "75")
	os.Setenv("ICPSCOUT_QUALITY_THRESHOLD", "65")
	os.Setenv("ICPSCOUT_AI_ENABLED", "true")
	os.Setenv("ICPSCOUT_AI_API_KEY", "test-ai-key")
	os.Setenv("ICPSCOUT_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("ICPSCOUT_APIFY_TOKEN")
		os.Unsetenv("ICPSCOUT_CALL_BUDGET")
		os.Unsetenv("ICPSCOUT_QUALITY_THRESHOLD")
		os.Unsetenv("ICPSCOUT_AI_ENABLED")
		os.Unsetenv("ICPSCOUT_AI_API_KEY")
		os.Unsetenv("ICPSCOUT_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Apify.APIToken != "test-apify-token" {
		t.Errorf("Expected apify token to be test-apify-token, got %s", config.Apify.APIToken)
	}

	if config.RateLimit.CallBudget != 75 {
		t.Errorf("Expected call budget to be 75, got %d", config.RateLimit.CallBudget)
	}

	if config.Filter.QualityThreshold != 65 {
		t.Errorf("Expected quality threshold to be 65, got %d", config.Filter.QualityThreshold)
	}

	if !config.AI.Enabled {
		t.Error("Expected AI fallback to be enabled")
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
apify:
  api_token: file-token
rate_limit:
  requests_per_window: 10
  window: 30s
  call_budget: 42
filter:
  quality_threshold: 70
  include_uncertain: true
cache:
  freshness_window: 48h
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Apify.APIToken != "file-token" {
		t.Errorf("Expected apify token from file, got %s", config.Apify.APIToken)
	}
	if config.RateLimit.RequestsPerWindow != 10 {
		t.Errorf("Expected 10 requests per window, got %d", config.RateLimit.RequestsPerWindow)
	}
	if config.RateLimit.Window != 30*time.Second {
		t.Errorf("Expected 30s window, got %v", config.RateLimit.Window)
	}
	if config.RateLimit.CallBudget != 42 {
		t.Errorf("Expected budget 42, got %d", config.RateLimit.CallBudget)
	}
	if !config.Filter.IncludeUncertain {
		t.Error("Expected include_uncertain to be true")
	}
	if config.Cache.FreshnessWindow != 48*time.Hour {
		t.Errorf("Expected 48h freshness window, got %v", config.Cache.FreshnessWindow)
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	config.Apify.APIToken = "token"

	if err := config.Validate(); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
}

func TestValidateMissingToken(t *testing.T) {
	config := DefaultConfig()

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail without an API token")
	}
	if !strings.Contains(err.Error(), "API token") {
		t.Errorf("Expected API token error, got: %v", err)
	}
}

func TestValidateAIKeyRequired(t *testing.T) {
	config := DefaultConfig()
	config.Apify.APIToken = "token"
	config.AI.Enabled = true

	if err := config.Validate(); err == nil {
		t.Fatal("Expected validation to fail when AI is enabled without a key")
	}
}

func TestValidateThresholdRange(t *testing.T) {
	config := DefaultConfig()
	config.Apify.APIToken = "token"
	config.Filter.QualityThreshold = 150

	if err := config.Validate(); err == nil {
		t.Fatal("Expected validation to fail for threshold > 100")
	}
}

func TestValidateProbeWeightWithinWindow(t *testing.T) {
	config := DefaultConfig()
	config.Apify.APIToken = "token"
	config.RateLimit.RequestsPerWindow = 3
	config.RateLimit.ProbeWeight = 5

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail for a probe weight above the window ceiling")
	}
	if !strings.Contains(err.Error(), "probe weight") {
		t.Errorf("Expected probe weight error, got: %v", err)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"apify-token":       "flag-token",
		"budget":            33,
		"threshold":         80,
		"include-uncertain": true,
		"concurrency":       7,
	}
	config.MergeCommandLineFlags(flags)

	if config.Apify.APIToken != "flag-token" {
		t.Errorf("Expected flag token, got %s", config.Apify.APIToken)
	}
	if config.RateLimit.CallBudget != 33 {
		t.Errorf("Expected budget 33, got %d", config.RateLimit.CallBudget)
	}
	if config.Filter.QualityThreshold != 80 {
		t.Errorf("Expected threshold 80, got %d", config.Filter.QualityThreshold)
	}
	if !config.Filter.IncludeUncertain {
		t.Error("Expected include-uncertain to be set")
	}
	if config.Filter.Concurrency != 7 {
		t.Errorf("Expected concurrency 7, got %d", config.Filter.Concurrency)
	}
}
