package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/pubfold/internal/storage"
)

var (
	emittedLimit int
	runsLimit    int
)

func init() {
	stateEmittedCmd.Flags().IntVar(&emittedLimit, "limit", 50, "Maximum rows (0 for all)")
	stateRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum rows (0 for all)")
	stateCmd.AddCommand(stateEmittedCmd)
	stateCmd.AddCommand(stateRunsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(cacheCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect what earlier runs wrote",
}

var stateEmittedCmd = &cobra.Command{
	Use:   "emitted",
	Short: "List bundles recorded by earlier runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenState(mustLoadConfig())
		defer db.Close()

		rows, err := db.ListEmitted(emittedLimit)
		if err != nil {
			db.Close()
			exitWithError(ExitError, "%v", err)
		}
		if !humanOutput {
			if rows == nil {
				rows = []storage.Emitted{}
			}
			return outputJSON(rows)
		}
		for _, e := range rows {
			outputHuman("%d  %-60s  %s\n", e.Year, truncate(e.Slug, 60), e.Source)
		}
		return nil
	},
}

var stateRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenState(mustLoadConfig())
		defer db.Close()

		runs, err := db.Runs(runsLimit)
		if err != nil {
			db.Close()
			exitWithError(ExitError, "%v", err)
		}
		if !humanOutput {
			if runs == nil {
				runs = []storage.Run{}
			}
			return outputJSON(runs)
		}
		for _, r := range runs {
			status := "unfinished"
			if !r.FinishedAt.IsZero() {
				status = r.FinishedAt.Sub(r.StartedAt).String()
			}
			outputHuman("%s  %-8s %s  wrote %d  (%s)\n", r.StartedAt.Local().Format("2006-01-02 15:04"), r.Mode, r.ID, r.Written, status)
		}
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the author feed cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached author feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		cache, err := storage.NewEntryCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		n, err := cache.Clear()
		if err != nil {
			exitWithError(ExitError, "clearing cache: %v", err)
		}
		if humanOutput {
			outputHuman("Removed %d cached feeds from %s\n", n, cfg.CacheDir)
			return nil
		}
		return outputJSON(struct {
			Removed int    `json:"removed"`
			Dir     string `json:"dir"`
		}{n, cfg.CacheDir})
	},
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
