package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/matsen/pubfold/internal/dedup"
	"github.com/matsen/pubfold/internal/feed"
	"github.com/matsen/pubfold/internal/pdflink"
	"github.com/matsen/pubfold/internal/reference"
)

var fixedNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestPipeline(opts Options) *Pipeline {
	opts.Now = func() time.Time { return fixedNow }
	opts.Log = zerolog.Nop()
	if opts.MinYear == 0 {
		opts.MinYear = 2022
	}
	return New(opts)
}

type fakeProber struct {
	pdfs map[string]bool
}

func (f fakeProber) Probe(_ context.Context, u string) pdflink.Result {
	return pdflink.Result{IsPDF: f.pdfs[u]}
}

func TestFromBibTeX_PrefersProceedings(t *testing.T) {
	text := `
@article{DBLP:journals/corr/abs-2403-12345,
  title   = {Scaling Laws For X},
  author  = {A. Smith and B. Lee},
  year    = {2024},
  journal = {CoRR},
  eprint  = {2403.12345}
}
@inproceedings{DBLP:conf/icml/SmithL24,
  title     = {Scaling Laws for X},
  author    = {A. Smith and B. Lee},
  year      = {2024},
  booktitle = {Proc. ICML 2024},
  pages     = {1-10}
}`
	p := newTestPipeline(Options{})
	got, stats, err := p.FromBibTeX(context.Background(), "dblp.bib", text)
	if err != nil {
		t.Fatalf("FromBibTeX() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FromBibTeX() returned %d records, want 1", len(got))
	}
	if got[0].Venue != "Proc. ICML 2024" {
		t.Errorf("Venue = %q, want %q", got[0].Venue, "Proc. ICML 2024")
	}
	if got[0].Key != "DBLP:conf/icml/SmithL24" || got[0].Source.Type != reference.SourceBibTeX {
		t.Errorf("provenance = %q %+v", got[0].Key, got[0].Source)
	}
	if stats.Input != 2 || stats.Kept != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFromBibTeX_Ingestion(t *testing.T) {
	text := `
@article{old, title={Old Paper}, author={A. Smith}, year={2019}, journal={J}}
@article{future, title={Future Paper}, author={A. Smith}, year={2031}, journal={J}}
@article{noauthor, title={Lonely Paper}, year={2024}, journal={J}}
@article{notitle, author={A. Smith}, year={2024}, journal={J}}
@article{braces, title={{BERT}: Pre-training of {Deep} Models}, author={J.Devlin and  M.Chang}, year={2023}, month={jun}, journal={NAACL}, abstract={Long text.}}
@article{newer, title={Newer Paper}, author={A. Smith}, year={2025}, journal={J}}
`
	p := newTestPipeline(Options{})
	got, stats, err := p.FromBibTeX(context.Background(), "x.bib", text)
	if err != nil {
		t.Fatalf("FromBibTeX() error = %v", err)
	}
	if stats.Skipped != 4 {
		t.Errorf("Skipped = %d, want 4", stats.Skipped)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	// Newest first
	if got[0].Title != "Newer Paper" {
		t.Errorf("first record = %q, want Newer Paper", got[0].Title)
	}

	bert := got[1]
	if bert.Title != "BERT: Pre-training of Deep Models" {
		t.Errorf("Title = %q", bert.Title)
	}
	if len(bert.Authors) != 2 || bert.Authors[0] != "J. Devlin" || bert.Authors[1] != "M. Chang" {
		t.Errorf("Authors = %q", bert.Authors)
	}
	if bert.Published != (reference.PublicationDate{Year: 2023, Month: 6, Day: 1}) {
		t.Errorf("Published = %+v", bert.Published)
	}
	if _, ok := bert.Fields["abstract"]; ok {
		t.Error("abstract should be dropped from fields")
	}
}

func TestFromBibTeX_ResolvesPDF(t *testing.T) {
	text := `@article{a, title={Only On arXiv}, author={A. Smith}, year={2024}, journal={CoRR}, volume={abs/2403.12345}}`
	prober := fakeProber{pdfs: map[string]bool{"https://arxiv.org/pdf/2403.12345.pdf": true}}
	p := newTestPipeline(Options{Resolver: pdflink.NewResolver(prober, zerolog.Nop())})

	got, _, err := p.FromBibTeX(context.Background(), "x.bib", text)
	if err != nil {
		t.Fatalf("FromBibTeX() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].PDFURL != "https://arxiv.org/pdf/2403.12345.pdf" {
		t.Errorf("PDFURL = %q", got[0].PDFURL)
	}
	if got[0].Venue != reference.VenueArXiv || got[0].ArXivID != "2403.12345" {
		t.Errorf("Venue = %q, ArXivID = %q", got[0].Venue, got[0].ArXivID)
	}
	if got[0].Published.Month != 3 {
		t.Errorf("Month = %d, want 3 from the identifier", got[0].Published.Month)
	}
}

func TestFromBibTeX_SkipsSeen(t *testing.T) {
	text := `
@article{a, title={Seen Before}, author={A. Smith}, year={2024}, journal={J}}
@article{b, title={Brand New}, author={A. Smith}, year={2024}, journal={J}}`
	p := newTestPipeline(Options{Seen: dedup.NewSeenTitles("seen before")})

	got, _, err := p.FromBibTeX(context.Background(), "x.bib", text)
	if err != nil {
		t.Fatalf("FromBibTeX() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Brand New" {
		t.Errorf("got %+v", got)
	}
}

func TestFromBibTeX_NoInput(t *testing.T) {
	p := newTestPipeline(Options{})
	if _, _, err := p.FromBibTeX(context.Background(), "x.bib", "% nothing here"); !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v, want ErrNoInput", err)
	}
}

func TestBibCandidates(t *testing.T) {
	rec := reference.Record{
		ArXivID: "2401.00001",
		DOI:     "10.1/x",
		Fields:  map[string]string{"url": "https://a.org/p", "ee": "https://b.org/q"},
	}
	want := []string{
		"https://arxiv.org/abs/2401.00001",
		"https://a.org/p",
		"https://b.org/q",
		"https://doi.org/10.1/x",
	}
	got := bibCandidates(rec)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("bibCandidates() = %q, want %q", got, want)
	}
}

type mapSource map[string][]feed.Entry

func (m mapSource) Fetch(ctx context.Context, id string) ([]feed.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, ok := m[id]
	if !ok {
		return nil, feed.ErrAuthorNotFound
	}
	return entries, nil
}

func entry(bib map[string]feed.FlexibleString, eprint string) feed.Entry {
	return feed.Entry{Bib: bib, EprintURL: eprint}
}

func TestFromFeeds_MergesAcrossAuthors(t *testing.T) {
	src := mapSource{
		"author1": {
			entry(map[string]feed.FlexibleString{
				"title": "Scaling Laws for X", "author": "A. Smith and B. Lee", "pub_year": "2024",
			}, "https://arxiv.org/abs/2403.12345"),
			entry(map[string]feed.FlexibleString{
				"title": "Too Old", "author": "A. Smith", "pub_year": "2020",
			}, ""),
		},
		"author2": {
			entry(map[string]feed.FlexibleString{
				"title": "Scaling Laws for X", "author": "B. Lee and A. Smith", "pub_year": "2024",
				"venue": "ICML", "pages": "1-10", "doi": "10.1/icml",
			}, ""),
			entry(map[string]feed.FlexibleString{
				"title": "<b>Another</b> &amp; Paper", "author": "B. Lee", "pub_year": "2025",
			}, ""),
		},
	}
	prober := fakeProber{pdfs: map[string]bool{"https://arxiv.org/pdf/2403.12345.pdf": true}}
	p := newTestPipeline(Options{MinYear: 2024, Resolver: pdflink.NewResolver(prober, zerolog.Nop())})

	got, stats, err := p.FromFeeds(context.Background(), src, []string{"author1", "missing", "author2"})
	if err != nil {
		t.Fatalf("FromFeeds() error = %v", err)
	}
	if stats.Authors != 2 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Venue != "ICML" || got[0].Source.ID != "author2" {
		t.Errorf("richer record should win: %+v", got[0])
	}
	if got[1].Title != "Another & Paper" {
		t.Errorf("Title = %q", got[1].Title)
	}
}

func TestFromFeeds_ResolvesBeforeMerge(t *testing.T) {
	src := mapSource{
		"a": {entry(map[string]feed.FlexibleString{"title": "Paper", "author": "A. Smith", "pub_year": "2024"},
			"https://arxiv.org/abs/2403.00001")},
	}
	prober := fakeProber{pdfs: map[string]bool{"https://arxiv.org/pdf/2403.00001.pdf": true}}
	p := newTestPipeline(Options{Resolver: pdflink.NewResolver(prober, zerolog.Nop())})

	got, _, err := p.FromFeeds(context.Background(), src, []string{"a"})
	if err != nil {
		t.Fatalf("FromFeeds() error = %v", err)
	}
	if got[0].PDFURL != "https://arxiv.org/pdf/2403.00001.pdf" {
		t.Errorf("PDFURL = %q", got[0].PDFURL)
	}
	if got[0].Published.Month != 1 || got[0].ArXivID != "" {
		t.Errorf("Month = %d, ArXivID = %q; an abs link alone should not date the record", got[0].Published.Month, got[0].ArXivID)
	}
}

func TestFromFeeds_Delay(t *testing.T) {
	src := mapSource{"a": nil, "b": nil, "c": nil}
	p := newTestPipeline(Options{AuthorDelay: 20 * time.Millisecond})

	start := time.Now()
	if _, _, err := p.FromFeeds(context.Background(), src, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("FromFeeds() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("three authors took %v, want at least two delays", elapsed)
	}
}

func TestFromFeeds_Errors(t *testing.T) {
	p := newTestPipeline(Options{})
	if _, _, err := p.FromFeeds(context.Background(), mapSource{}, nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v, want ErrNoInput", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := p.FromFeeds(ctx, mapSource{"a": nil}, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
