// Package main provides the pubfold CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matsen/pubfold/internal/config"
	"github.com/matsen/pubfold/internal/logging"
	"github.com/matsen/pubfold/internal/pdflink"
	"github.com/matsen/pubfold/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	configPath  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubfold",
	Short: "Fold noisy publication lists into one page per paper",
	Long: `pubfold reconciles publication records from a citation-database export
or from per-author profile feeds into one deduplicated record per paper, and
writes each as a static-site page bundle.

Records are normalized, given a venue and a publication date, linked to a
verified PDF where one exists, and deduplicated before output.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/pubfold/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger returns the run logger. Logs always go to stderr so stdout
// stays parseable.
func newLogger(runID string) zerolog.Logger {
	return logging.NewWithRunID(logging.Config{Level: logLevel, Human: humanOutput}, runID)
}

// newResolver builds the PDF resolver for one run. With probing disabled
// only the URL-shape fallback applies.
func newResolver(cfg *config.Config, log zerolog.Logger) *pdflink.Resolver {
	if !cfg.Probe.Enabled {
		return pdflink.NewResolver(nil, log)
	}
	opts := []pdflink.ProberOption{
		pdflink.WithTimeout(cfg.Probe.Timeout),
		pdflink.WithMaxRetries(cfg.Probe.MaxRetries),
		pdflink.WithRateLimit(cfg.Probe.RatePerSecond),
		pdflink.WithLandingLookup(cfg.Probe.FollowLanding),
		pdflink.WithLogger(log),
	}
	if cfg.Probe.UserAgent != "" {
		opts = append(opts, pdflink.WithUserAgent(cfg.Probe.UserAgent))
	}
	return pdflink.NewResolver(pdflink.NewHTTPProber(opts...), log)
}

// mustOpenState opens the run-state database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenState(cfg *config.Config) *storage.StateDB {
	if err := os.MkdirAll(filepath.Dir(cfg.StateDB), 0755); err != nil {
		exitWithError(ExitError, "creating state dir: %v", err)
	}
	db, err := storage.OpenStateDB(cfg.StateDB)
	if err != nil {
		exitWithError(ExitError, "opening state database: %v", err)
	}
	return db
}
