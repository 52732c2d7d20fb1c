package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"icpscout/pkg/config"
	"icpscout/pkg/logger"
	"icpscout/pkg/report"
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results [brand]",
	Short: "List or show past run results",
	Long: `List saved run artifacts, newest first. With --show the most recent
result for the brand is printed as a summary.`,
	Example: `  # List every saved run
  icpscout results

  # List runs for one brand
  icpscout results glowbrand

  # Show the latest run for a brand
  icpscout results glowbrand --show`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

var showLatest bool

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().BoolVar(&showLatest, "show", false, "print a summary of the most recent result")
	resultsCmd.Flags().StringVar(&resultsDir, "results-dir", "", "directory holding run result artifacts")
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if resultsDir != "" {
		cfg.Output.ResultsDirectory = resultsDir
	}

	writer, err := report.NewWriter(cfg.Output.ResultsDirectory, logger.NewNopLogger())
	if err != nil {
		return err
	}

	brand := ""
	if len(args) == 1 {
		brand = args[0]
	}

	paths, err := writer.List(brand)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No saved results found.")
		return nil
	}

	if showLatest {
		result, err := report.Load(paths[0])
		if err != nil {
			return err
		}
		fmt.Print(report.Summary(result))
		fmt.Printf("\nFull result: %s\n", paths[0])
		return nil
	}

	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}
