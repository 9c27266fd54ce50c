package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pubfold/internal/pipeline"
)

var (
	bibFlags   runFlags
	bibPath    string
	bibMinYear int
)

func init() {
	bibCmd.Flags().StringVar(&bibPath, "bib", "", "Path to the .bib export (required)")
	bibCmd.Flags().IntVar(&bibMinYear, "min-year", 0, "Keep publications from this year on (default from config)")
	bibFlags.register(bibCmd)
	bibCmd.MarkFlagRequired("bib")
	rootCmd.AddCommand(bibCmd)
}

var bibCmd = &cobra.Command{
	Use:   "bib",
	Short: "Write bundles from a citation-database export",
	Long: `Write one page bundle per distinct paper in a BibTeX export.

Duplicates are removed in two stages: by normalized title, preferring the
published version over the arXiv listing, then by leading title words and
publication data. Bundles are written newest first.

Examples:
  pubfold bib --bib dblp.bib --out content/publication
  pubfold bib --bib dblp.bib --min-year 2020 --dry-run --human
  pubfold bib --bib dblp.bib --bib-out site/refs.bib --skip-seen`,
	RunE: runBib,
}

func runBib(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(bibPath)
	if err != nil {
		exitWithError(ExitDataError, "reading bib file: %v", err)
	}

	r := startRun("bib", mustLoadConfig(), &bibFlags)
	defer r.close()

	minYear := r.cfg.BibMinYear
	if bibMinYear != 0 {
		minYear = bibMinYear
	}

	resolver := newResolver(r.cfg, r.log)
	p := pipeline.New(pipeline.Options{
		MinYear:  minYear,
		Weights:  r.cfg.Weights,
		Resolver: resolver,
		Seen:     r.seen(),
		Log:      r.log,
	})

	recs, stats, err := p.FromBibTeX(context.Background(), bibPath, string(data))
	if errors.Is(err, pipeline.ErrNoInput) {
		r.fail(ExitConfigError, "no entries found in %s", bibPath)
	}
	if err != nil {
		r.fail(ExitError, "processing %s: %v", bibPath, err)
	}

	r.finish(recs, stats, resolver)
	return nil
}
