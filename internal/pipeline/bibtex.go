package pipeline

import (
	"context"
	"strings"

	"github.com/matsen/pubfold/internal/bibtex"
	"github.com/matsen/pubfold/internal/dedup"
	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/textnorm"
)

// FromBibTeX parses a citation-database export, deduplicates it in two
// stages and resolves a PDF link for each surviving record. Records come
// back newest first. name identifies the input in record provenance.
func (p *Pipeline) FromBibTeX(ctx context.Context, name, text string) ([]reference.Record, Stats, error) {
	entries := bibtex.Parse(text)
	stats := Stats{Input: len(entries)}
	if len(entries) == 0 {
		return nil, stats, ErrNoInput
	}

	records := make([]reference.Record, 0, len(entries))
	for _, e := range entries {
		fields := make(map[string]string, len(e))
		for k, v := range e {
			if k != bibtex.FieldEntryType && k != bibtex.FieldKey {
				fields[k] = v
			}
		}

		title := textnorm.Normalize(stripBraces(e.Get("title")))
		authors := cleanAuthors(reference.SplitAuthors(e.Get("author")))
		rec, err := p.ingest(fields, title, authors)
		if err != nil {
			stats.Skipped++
			p.skip(err, title, e.Key())
			continue
		}
		rec.Key = e.Key()
		rec.Source = reference.ImportSource{Type: reference.SourceBibTeX, ID: name}
		records = append(records, rec)
	}

	kept := dedup.Batch(records)
	for i := range kept {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		kept[i].PDFURL = p.resolve(ctx, bibCandidates(kept[i]))
	}

	stats.Kept = len(kept)
	p.log.Info().Int("input", stats.Input).Int("skipped", stats.Skipped).Int("kept", stats.Kept).Msg("citation export processed")
	return kept, stats, nil
}

// bibCandidates lists PDF candidates for an export record: the arXiv
// abstract page for its identifier, then the url and ee links, then the DOI.
func bibCandidates(rec reference.Record) []string {
	var out []string
	if rec.ArXivID != "" {
		out = append(out, "https://arxiv.org/abs/"+rec.ArXivID)
	}
	for _, k := range []string{"url", "ee"} {
		if v := strings.TrimSpace(rec.Fields[k]); v != "" {
			out = append(out, v)
		}
	}
	if rec.DOI != "" {
		out = append(out, "https://doi.org/"+rec.DOI)
	}
	return out
}

// stripBraces drops the case-protection braces of citation titles.
func stripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}
