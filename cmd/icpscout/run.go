package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"icpscout/pkg/ai"
	"icpscout/pkg/apify"
	"icpscout/pkg/auth"
	"icpscout/pkg/cache"
	"icpscout/pkg/classify"
	"icpscout/pkg/config"
	"icpscout/pkg/logger"
	"icpscout/pkg/pipeline"
	"icpscout/pkg/ratelimit"
	"icpscout/pkg/report"
)

var (
	// Run command flags
	brandFile        string
	apifyToken       string
	callBudget       int
	rateLimit        int
	qualityThreshold int
	includeUncertain bool
	concurrency      int
	resultsDir       string
	aiEnabled        bool
	aiKey            string
	cachePath        string
	summaryOnly      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [brand]",
	Short: "Filter the audience of a brand account",
	Long: `Ingest the commenters and followers of a brand account and filter them
down to real, engaged people.

Pass a single brand handle, or --file with a JSON array of handles to
process several brands in one invocation. Each brand produces its own
result artifact and the call budget applies per brand.

The run spends paid scraping calls only up to the configured budget.
Everything fetched is cached, so repeat runs against the same brand reuse
fresh data for free. When the budget runs out mid-run the result is
marked partial instead of failing.

An Apify API token is required, either stored via 'icpscout auth set
apify' or provided with --apify-token / ICPSCOUT_APIFY_TOKEN.`,
	Example: `  # Run with default settings
  icpscout run glowbrand

  # Cap the spend and raise the quality bar
  icpscout run glowbrand --budget 100 --threshold 70

  # Keep uncertain classifications as well
  icpscout run glowbrand --include-uncertain

  # Enable the AI classification fallback
  icpscout run glowbrand --ai

  # Process a list of brands from a file
  icpscout run --file brands.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&brandFile, "file", "f", "", "JSON file with an array of brand handles")
	runCmd.Flags().StringVar(&apifyToken, "apify-token", "", "Apify API token (overrides stored credential)")
	runCmd.Flags().IntVar(&callBudget, "budget", 0, "maximum paid scraping calls for this run")
	runCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests allowed per rate window")
	runCmd.Flags().IntVar(&qualityThreshold, "threshold", -1, "minimum quality score to keep a candidate (0-100)")
	runCmd.Flags().BoolVar(&includeUncertain, "include-uncertain", false, "keep candidates the classifier could not decide on")
	runCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of candidates evaluated in parallel")
	runCmd.Flags().StringVar(&resultsDir, "results-dir", "", "directory for run result artifacts")
	runCmd.Flags().BoolVar(&aiEnabled, "ai", false, "enable the AI classification fallback")
	runCmd.Flags().StringVar(&aiKey, "ai-key", "", "API key for the AI classification fallback")
	runCmd.Flags().StringVar(&cachePath, "cache", "", "path to the cache database")
	runCmd.Flags().BoolVar(&summaryOnly, "summary", false, "print the summary without the artifact path")
}

func runFilter(cmd *cobra.Command, args []string) error {
	brands, err := resolveBrands(args)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("icpscout starting")

	store, err := cache.Open(cfg.Cache.Path, log)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	if pruned, err := store.Prune(context.Background(), time.Now(), cfg.Cache.FreshnessWindow); err == nil && pruned > 0 {
		log.WithField("pruned", pruned).Debug("removed stale cache entries")
	}

	backend := apify.NewClient(&cfg.Apify, log)

	var aiClient ai.Classifier
	if cfg.AI.Enabled {
		aiClient = ai.NewClient(&cfg.AI, log)
	}
	classifier := classify.New(aiClient, log)

	writer, err := report.NewWriter(cfg.Output.ResultsDirectory, log)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, brand := range brands {
		// The call budget is per run, so each brand gets a fresh gate.
		gate := ratelimit.NewGate(
			ratelimit.NewSlidingWindow(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window),
			ratelimit.NewBudget(cfg.RateLimit.CallBudget),
		)
		fetcher := pipeline.NewFetcher(backend, store, gate, cfg, log)

		p := pipeline.New(fetcher, classifier, cfg, log)
		result, err := p.Run(ctx, brand)
		if err != nil {
			return fmt.Errorf("run failed for %s: %w", brand, err)
		}

		path, err := writer.Write(result)
		if err != nil {
			return fmt.Errorf("failed to save result for %s: %w", brand, err)
		}

		fmt.Println()
		fmt.Print(report.Summary(result))
		if !summaryOnly {
			fmt.Printf("\nFull result: %s\n", path)
		}
	}
	return nil
}

// resolveBrands turns the positional argument or --file list into a cleaned,
// validated set of brand handles.
func resolveBrands(args []string) ([]string, error) {
	var raw []string
	switch {
	case brandFile != "" && len(args) > 0:
		return nil, fmt.Errorf("pass either a brand handle or --file, not both")
	case brandFile != "":
		data, err := os.ReadFile(brandFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read brand file: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("brand file must be a JSON array of handles: %w", err)
		}
	case len(args) > 0:
		raw = args
	default:
		return nil, fmt.Errorf("brand handle is required (or use --file)")
	}

	seen := make(map[string]bool)
	brands := make([]string, 0, len(raw))
	for _, h := range raw {
		brand := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "@"))
		if brand == "" {
			continue
		}
		if !apify.IsValidUsername(brand) {
			return nil, fmt.Errorf("invalid brand handle: %s", h)
		}
		if !seen[brand] {
			seen[brand] = true
			brands = append(brands, brand)
		}
	}
	if len(brands) == 0 {
		return nil, fmt.Errorf("no valid brand handles found")
	}
	return brands, nil
}

// loadRunConfig resolves configuration from flags, environment, config file
// and the credential store
func loadRunConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if apifyToken != "" {
		flags["apify-token"] = apifyToken
	}
	if callBudget > 0 {
		flags["budget"] = callBudget
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if qualityThreshold >= 0 {
		flags["threshold"] = qualityThreshold
	}
	if includeUncertain {
		flags["include-uncertain"] = true
	}
	if concurrency > 0 {
		flags["concurrency"] = concurrency
	}
	if resultsDir != "" {
		flags["results-dir"] = resultsDir
	}
	if aiEnabled {
		flags["ai"] = true
	}
	if aiKey != "" {
		flags["ai-key"] = aiKey
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Stored credentials fill the gaps before validation runs.
	if flags["apify-token"] == nil && os.Getenv("ICPSCOUT_APIFY_TOKEN") == "" {
		if manager, err := auth.NewManager(); err == nil {
			if cred, err := manager.Retrieve(auth.ServiceApify); err == nil {
				flags["apify-token"] = cred.Token
			}
			if aiEnabled && aiKey == "" {
				if cred, err := manager.Retrieve(auth.ServiceAI); err == nil {
					flags["ai-key"] = cred.Token
				}
			}
		}
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		if strings.Contains(err.Error(), "API token") {
			fmt.Fprintln(os.Stderr, "No Apify API token found.")
			fmt.Fprintln(os.Stderr, "\nStore one securely with:")
			fmt.Fprintln(os.Stderr, "  icpscout auth set apify")
			fmt.Fprintln(os.Stderr, "\nOr set the environment variable:")
			fmt.Fprintln(os.Stderr, "  export ICPSCOUT_APIFY_TOKEN=your_token")
		}
		return nil, err
	}

	if cachePath != "" {
		cfg.Cache.Path = cachePath
	}
	return cfg, nil
}
