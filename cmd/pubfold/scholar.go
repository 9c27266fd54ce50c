package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/pubfold/internal/config"
	"github.com/matsen/pubfold/internal/feed"
	"github.com/matsen/pubfold/internal/pipeline"
	"github.com/matsen/pubfold/internal/storage"
)

var (
	scholarFlags    runFlags
	scholarFeedDir  string
	scholarYearFrom int
	scholarNoCache  bool
)

func init() {
	scholarCmd.Flags().StringVar(&scholarFeedDir, "feed-dir", "", "Directory of <author-id>.json feeds (default from config or FEED_DIR)")
	scholarCmd.Flags().IntVar(&scholarYearFrom, "year-from", 0, "Keep publications from this year on (default from config or YEAR_FROM)")
	scholarCmd.Flags().BoolVar(&scholarNoCache, "no-cache", false, "Bypass the per-author entry cache")
	scholarFlags.register(scholarCmd)
	rootCmd.AddCommand(scholarCmd)
}

var scholarCmd = &cobra.Command{
	Use:   "scholar [ids-or-urls... | file]",
	Short: "Write bundles from author profile feeds",
	Long: `Write one page bundle per distinct paper across several authors' profile
feeds.

Author IDs come from SCHOLAR_URLS, the scholar_urls config entries, the
scholar_url_file config entry and the arguments, in that order. Arguments may
be bare IDs, profile URLs, or a single file with one per line.

When several authors list the same paper, the most complete record wins.

Examples:
  pubfold scholar --feed-dir feeds ABCDEFGHIJKL
  pubfold scholar --feed-dir feeds authors.txt --year-from 2023
  SCHOLAR_URLS="https://scholar.google.com/citations?user=ABCDEFGHIJKL" pubfold scholar`,
	RunE: runScholar,
}

func runScholar(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ids, err := collectAuthorIDs(cfg, args)
	if err != nil {
		exitWithError(ExitDataError, "reading author IDs: %v", err)
	}
	if len(ids) == 0 {
		exitWithError(ExitConfigError, "no author IDs found\n\nSet SCHOLAR_URLS or pass IDs, profile URLs or a file of them.")
	}

	if scholarFeedDir != "" {
		cfg.FeedDir = config.ExpandPath(scholarFeedDir)
	}
	if cfg.FeedDir == "" {
		exitWithError(ExitConfigError, "no feed directory configured\n\nSet FEED_DIR, feed_dir in the config file, or pass --feed-dir.")
	}

	r := startRun("scholar", cfg, &scholarFlags)
	defer r.close()

	yearFrom := r.cfg.YearFrom
	if scholarYearFrom != 0 {
		yearFrom = scholarYearFrom
	}

	var src feed.Source = feed.DirSource{Dir: r.cfg.FeedDir}
	if !scholarNoCache {
		cache, err := storage.NewEntryCache(r.cfg.CacheDir, r.cfg.CacheTTL)
		if err != nil {
			r.log.Warn().Err(err).Msg("entry cache unavailable")
		} else {
			src = feed.NewCachedSource(src, cache, r.log)
		}
	}

	resolver := newResolver(r.cfg, r.log)
	p := pipeline.New(pipeline.Options{
		MinYear:     yearFrom,
		Weights:     r.cfg.Weights,
		Resolver:    resolver,
		Seen:        r.seen(),
		AuthorDelay: r.cfg.SleepBetweenAuthors,
		Log:         r.log,
	})

	r.log.Info().Int("authors", len(ids)).Int("year_from", yearFrom).Msg("processing author feeds")
	recs, stats, err := p.FromFeeds(context.Background(), src, ids)
	if errors.Is(err, pipeline.ErrNoInput) {
		r.fail(ExitConfigError, "no author IDs found")
	}
	if err != nil {
		r.fail(ExitError, "processing feeds: %v", err)
	}

	r.finish(recs, stats, resolver)
	return nil
}

// collectAuthorIDs merges IDs from the configured URLs (SCHOLAR_URLS), the
// configured ID file and the command arguments, in that order.
func collectAuthorIDs(cfg *config.Config, args []string) ([]string, error) {
	return feed.CollectIDs(feed.Inputs{
		Env:  strings.Join(cfg.ScholarURLs, ","),
		File: cfg.ScholarURLFile,
		Args: args,
	})
}
