package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/pubfold/internal/bundle"
	"github.com/matsen/pubfold/internal/config"
	"github.com/matsen/pubfold/internal/logging"
)

var (
	fixRoot    string
	fixOut     string
	fixMinYear int
	fixDryRun  bool
)

func init() {
	fixCmd.Flags().StringVar(&fixRoot, "root", "", "Existing bundle directory (required)")
	fixCmd.Flags().StringVar(&fixOut, "out", "", "Directory for repaired bundles (required)")
	fixCmd.Flags().IntVar(&fixMinYear, "min-year", 0, "Only bundles whose slug year is at least this (default from config)")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report what would be written")
	fixCmd.MarkFlagRequired("root")
	fixCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(fixCmd)
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair an existing bundle tree",
	Long: `Copy bundles into a new tree, repairing them on the way.

Braces are removed from titles. Bundles whose PDF link is on arXiv get
publication "arXiv:<id>" and dates taken from the identifier's month.
Other front-matter fields are kept as they are.

Examples:
  pubfold fix --root content/publication --out /tmp/publication
  pubfold fix --root pub --out pub-fixed --min-year 2022 --dry-run`,
	RunE: runFix,
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(logging.NewRunID()).With().Str("mode", "fix").Logger()

	minYear := cfg.FixMinYear
	if fixMinYear != 0 {
		minYear = fixMinYear
	}
	out := config.ExpandPath(fixOut)

	report, err := bundle.Fix(bundle.FixOptions{
		Root:    config.ExpandPath(fixRoot),
		Out:     out,
		MinYear: minYear,
		DryRun:  fixDryRun || cfg.DryRun,
	}, log)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	printFix(report, out, fixDryRun || cfg.DryRun)
	return nil
}
