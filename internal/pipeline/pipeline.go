// Package pipeline turns raw citation text or author feeds into the final,
// deduplicated record list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/matsen/pubfold/internal/dedup"
	"github.com/matsen/pubfold/internal/pdflink"
	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/textnorm"
	"github.com/matsen/pubfold/internal/venue"
)

// Ingestion errors. They are logged per record and never abort a run.
var (
	ErrNoTitle     = errors.New("missing title")
	ErrNoAuthors   = errors.New("missing authors")
	ErrNoYear      = errors.New("missing year")
	ErrOutOfWindow = errors.New("year outside window")
	ErrSeen        = errors.New("emitted by an earlier run")
)

// ErrNoInput means there was nothing to process.
var ErrNoInput = errors.New("no input")

// Options configures a Pipeline.
type Options struct {
	// MinYear is the earliest year kept. The latest is the current year.
	MinYear int
	Weights dedup.Weights
	// Resolver verifies PDF links. Nil disables link resolution.
	Resolver *pdflink.Resolver
	// Seen skips titles emitted by earlier runs. Nil keeps everything.
	Seen *dedup.SeenTitles
	// AuthorDelay is the pause between consecutive author fetches.
	AuthorDelay time.Duration
	Now         func() time.Time
	Log         zerolog.Logger
}

// Pipeline runs one ingestion. It is not safe for concurrent use.
type Pipeline struct {
	opts Options
	now  time.Time
	log  zerolog.Logger
}

// Stats counts what a run did.
type Stats struct {
	Input   int `json:"input"`
	Skipped int `json:"skipped"`
	Kept    int `json:"kept"`
	Authors int `json:"authors,omitempty"`
	Failed  int `json:"failed_authors,omitempty"`
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Weights == (dedup.Weights{}) {
		opts.Weights = dedup.DefaultWeights()
	}
	return &Pipeline{opts: opts, now: opts.Now(), log: opts.Log}
}

// ingest builds a record from raw fields. Titles and authors arrive already
// cleaned of markup.
func (p *Pipeline) ingest(fields map[string]string, title string, authors []string) (reference.Record, error) {
	if title == "" {
		return reference.Record{}, ErrNoTitle
	}
	if len(authors) == 0 {
		return reference.Record{}, ErrNoAuthors
	}

	date, ok := venue.InferDate(fields, p.now)
	if !ok {
		return reference.Record{}, ErrNoYear
	}
	if date.Year < p.opts.MinYear || date.Year > p.now.Year() {
		return reference.Record{}, fmt.Errorf("%w: %d", ErrOutOfWindow, date.Year)
	}
	if p.opts.Seen != nil && p.opts.Seen.Seen(title) {
		return reference.Record{}, ErrSeen
	}

	kept := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "abstract" {
			continue
		}
		kept[k] = v
	}

	return reference.Record{
		DOI:       strings.TrimSpace(fields["doi"]),
		ArXivID:   venue.ExtractArxivID(fields),
		Title:     title,
		Authors:   authors,
		Venue:     venue.InferVenue(fields),
		Published: date,
		Fields:    kept,
	}, nil
}

func (p *Pipeline) resolve(ctx context.Context, candidates []string) string {
	if p.opts.Resolver == nil {
		return ""
	}
	return p.opts.Resolver.Resolve(ctx, candidates)
}

// cleanAuthors normalizes each name and drops the ones that end up empty.
func cleanAuthors(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = reference.NormalizeAuthorName(textnorm.Normalize(n)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (p *Pipeline) skip(err error, title, source string) {
	ev := p.log.Info()
	if errors.Is(err, ErrOutOfWindow) || errors.Is(err, ErrSeen) {
		ev = p.log.Debug()
	}
	ev.Err(err).Str("title", title).Str("source", source).Msg("skipping record")
}
