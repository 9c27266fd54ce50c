package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matsen/pubfold/internal/bibtex"
	"github.com/matsen/pubfold/internal/bundle"
	"github.com/matsen/pubfold/internal/config"
	"github.com/matsen/pubfold/internal/dedup"
	"github.com/matsen/pubfold/internal/logging"
	"github.com/matsen/pubfold/internal/pdflink"
	"github.com/matsen/pubfold/internal/pipeline"
	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/storage"
	"github.com/matsen/pubfold/internal/textnorm"
)

// runFlags are shared by the bib and scholar commands.
type runFlags struct {
	out      string
	dryRun   bool
	noProbe  bool
	skipSeen bool
	noState  bool
	bibOut   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.out, "out", "", "Bundle output directory (default from config or OUT_DIR)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print bundles instead of writing them")
	cmd.Flags().BoolVar(&f.noProbe, "no-probe", false, "Do not verify PDF links over the network")
	cmd.Flags().BoolVar(&f.skipSeen, "skip-seen", false, "Skip titles emitted by earlier runs")
	cmd.Flags().BoolVar(&f.noState, "no-state", false, "Do not read or record run state")
	cmd.Flags().StringVar(&f.bibOut, "bib-out", "", "Also append new records to this BibTeX file")
}

// apply folds the flags into cfg.
func (f *runFlags) apply(cfg *config.Config) {
	if f.out != "" {
		cfg.OutDir = config.ExpandPath(f.out)
	}
	if f.dryRun {
		cfg.DryRun = true
	}
	if f.noProbe {
		cfg.Probe.Enabled = false
	}
}

// run holds what one bib or scholar invocation shares.
type run struct {
	id    string
	mode  string
	cfg   *config.Config
	flags *runFlags
	log   zerolog.Logger
	state *storage.StateDB
	start time.Time
}

func startRun(mode string, cfg *config.Config, flags *runFlags) *run {
	flags.apply(cfg)

	r := &run{
		id:    logging.NewRunID(),
		mode:  mode,
		cfg:   cfg,
		flags: flags,
		start: time.Now(),
	}
	r.log = newLogger(r.id).With().Str("mode", mode).Logger()

	if !flags.noState {
		r.state = mustOpenState(cfg)
	}
	return r
}

func (r *run) close() {
	if r.state != nil {
		r.state.Close()
		r.state = nil
	}
}

// fail is exitWithError for an open run: the state database is closed
// first, as deferred calls do not run on exit.
func (r *run) fail(code int, format string, args ...any) {
	r.close()
	exitWithError(code, format, args...)
}

// record stores a run together with the bundles it wrote. Nothing is
// recorded for a run that never reached the writing stage.
func (r *run) record(emitted []storage.Emitted, written int, end time.Time) {
	if r.state == nil || r.cfg.DryRun {
		return
	}
	if err := r.state.BeginRun(r.id, r.mode, r.start); err != nil {
		r.log.Warn().Err(err).Msg("recording run start failed")
		return
	}
	if err := r.state.RecordEmitted(emitted); err != nil {
		r.log.Warn().Err(err).Msg("recording emitted bundles failed")
	}
	if err := r.state.FinishRun(r.id, written, end); err != nil {
		r.log.Warn().Err(err).Msg("recording run end failed")
	}
}

// seen loads titles from earlier runs when --skip-seen is given.
func (r *run) seen() *dedup.SeenTitles {
	if !r.flags.skipSeen || r.state == nil {
		return nil
	}
	keys, err := r.state.TitleKeys()
	if err != nil {
		r.fail(ExitError, "loading emitted titles: %v", err)
	}
	r.log.Info().Int("titles", len(keys)).Msg("skipping titles from earlier runs")
	return dedup.NewSeenTitles(keys...)
}

// finish writes the bundles, records them and prints the summary.
func (r *run) finish(recs []reference.Record, stats pipeline.Stats, resolver *pdflink.Resolver) {
	opts := []bundle.WriterOption{bundle.WithWriterLogger(r.log)}
	if r.cfg.DryRun {
		// Keep stdout parseable in JSON mode.
		preview := os.Stderr
		if humanOutput {
			preview = os.Stdout
		}
		opts = append(opts, bundle.WithDryRun(preview))
	}
	w := bundle.NewWriter(r.cfg.OutDir, opts...)

	paths, emitted, err := emitRecords(w, recs, r.id, r.mode, time.Now())
	if err != nil {
		r.record(emitted, len(emitted), time.Now())
		r.fail(ExitError, "%v", err)
	}

	resp := RunResponse{
		RunID:   r.id,
		Mode:    r.mode,
		OutDir:  r.cfg.OutDir,
		DryRun:  r.cfg.DryRun,
		Stats:   stats,
		Written: w.Count(),
		Bundles: paths,
	}
	resp.Probes, resp.ProbeHits = resolver.Stats()

	if r.flags.bibOut != "" && !r.cfg.DryRun {
		n, err := appendBib(r.flags.bibOut, recs)
		if err != nil {
			r.record(emitted, w.Count(), time.Now())
			r.fail(ExitError, "%v", err)
		}
		resp.BibAppended = n
	}

	r.record(emitted, w.Count(), time.Now())

	r.log.Info().Int("written", w.Count()).Dur("elapsed", time.Since(r.start)).Msg("run complete")
	printRun(resp)
}

// emitRecords writes every record and returns the page paths and the state
// rows describing them.
func emitRecords(w *bundle.Writer, recs []reference.Record, runID, mode string, now time.Time) ([]string, []storage.Emitted, error) {
	paths := make([]string, 0, len(recs))
	emitted := make([]storage.Emitted, 0, len(recs))
	for _, rec := range recs {
		path, err := w.Write(rec)
		if err != nil {
			return paths, emitted, fmt.Errorf("writing %q: %w", rec.Title, err)
		}
		paths = append(paths, path)
		emitted = append(emitted, storage.Emitted{
			Slug:      filepath.Base(filepath.Dir(path)),
			TitleKey:  textnorm.TitleKey(rec.Title),
			Title:     rec.Title,
			Year:      rec.Published.Year,
			Source:    mode,
			RunID:     runID,
			EmittedAt: now,
		})
	}
	return paths, emitted, nil
}

// appendBib appends records not already in the file, matched by DOI then
// citation key, and returns how many were added.
func appendBib(path string, recs []reference.Record) (int, error) {
	idx, err := bibtex.IndexFile(path)
	if err != nil {
		return 0, fmt.Errorf("indexing %s: %w", path, err)
	}

	var fresh []reference.Record
	for _, rec := range recs {
		key := bibtex.CitationKey(rec)
		if idx.HasEntry(key, rec.DOI) {
			continue
		}
		idx.Mark(key, rec.DOI)
		fresh = append(fresh, rec)
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := bibtex.AppendFile(path, bibtex.ToBibTeXList(fresh)); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
