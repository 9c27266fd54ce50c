package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/matsen/pubfold/internal/dedup"
	"github.com/matsen/pubfold/internal/feed"
	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/textnorm"
)

// FromFeeds fetches each author's entries from src in order and folds every
// accepted record into one list by richness. An author that fails is logged
// and skipped. Consecutive fetches are spaced by the configured delay.
func (p *Pipeline) FromFeeds(ctx context.Context, src feed.Source, authorIDs []string) ([]reference.Record, Stats, error) {
	var stats Stats
	if len(authorIDs) == 0 {
		return nil, stats, ErrNoInput
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if p.opts.AuthorDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(p.opts.AuthorDelay), 1)
	}

	merger := dedup.NewMerger(p.opts.Weights)
	for _, id := range authorIDs {
		if err := limiter.Wait(ctx); err != nil {
			return nil, stats, err
		}

		log := p.log.With().Str("author", id).Logger()
		entries, err := src.Fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			stats.Failed++
			log.Warn().Err(err).Msg("author fetch failed")
			continue
		}
		stats.Authors++

		added := 0
		for i, e := range entries {
			stats.Input++
			rec, err := p.feedRecord(ctx, id, i, e)
			if err != nil {
				stats.Skipped++
				p.skip(err, e.Title(), id)
				continue
			}
			outcome, idx := merger.Add(rec)
			if outcome != dedup.Discarded {
				added++
			}
			log.Debug().Str("title", rec.Title).Stringer("outcome", outcome).Int("slot", idx).Msg("merged")
		}
		log.Info().Int("entries", len(entries)).Int("added", added).Msg("author processed")
	}

	kept := merger.Records()
	stats.Kept = len(kept)
	return kept, stats, nil
}

func (p *Pipeline) feedRecord(ctx context.Context, authorID string, pos int, e feed.Entry) (reference.Record, error) {
	fields := e.Fields()
	title := textnorm.Normalize(fields["title"])
	authors := cleanAuthors(reference.SplitAuthors(fields["author"]))

	rec, err := p.ingest(fields, title, authors)
	if err != nil {
		return rec, err
	}
	rec.Key = fmt.Sprintf("%s#%d", authorID, pos)
	rec.Source = reference.ImportSource{Type: reference.SourceScholar, ID: authorID}
	rec.PDFURL = p.resolve(ctx, e.Links())
	return rec, nil
}
