package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/pubfold/internal/bibtex"
	"github.com/matsen/pubfold/internal/bundle"
	"github.com/matsen/pubfold/internal/config"
	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/storage"
)

func testRecords() []reference.Record {
	return []reference.Record{
		{
			Key:       "DBLP:conf/icml/SmithL24",
			Title:     "Scaling Laws for X",
			Authors:   []string{"A. Smith", "B. Lee"},
			Venue:     "Proc. ICML 2024",
			Published: reference.PublicationDate{Year: 2024, Month: 7, Day: 1},
			Source:    reference.ImportSource{Type: reference.SourceBibTeX, ID: "dblp.bib"},
		},
		{
			DOI:       "10.1/graph",
			Title:     "Graph Nets & Friends",
			Authors:   []string{"C. Wu"},
			Venue:     "Nature",
			Published: reference.PublicationDate{Year: 2023, Month: 1, Day: 1},
			Source:    reference.ImportSource{Type: reference.SourceScholar, ID: "ABCDEFGHIJKL"},
		},
	}
}

func TestEmitRecords(t *testing.T) {
	out := t.TempDir()
	w := bundle.NewWriter(out)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	paths, emitted, err := emitRecords(w, testRecords(), "run-1", "bib", now)
	if err != nil {
		t.Fatalf("emitRecords() error = %v", err)
	}
	if len(paths) != 2 || len(emitted) != 2 {
		t.Fatalf("got %d paths, %d rows", len(paths), len(emitted))
	}

	if emitted[1].Slug != "graph-nets-and-friends-2023" {
		t.Errorf("Slug = %q", emitted[1].Slug)
	}
	if emitted[0].TitleKey != "scaling laws for x" || emitted[0].RunID != "run-1" || !emitted[0].EmittedAt.Equal(now) {
		t.Errorf("row = %+v", emitted[0])
	}

	data, err := os.ReadFile(filepath.Join(out, "scaling-laws-for-x-2024", bundle.IndexFile))
	if err != nil {
		t.Fatalf("reading bundle: %v", err)
	}
	if !strings.Contains(string(data), `publication: "Proc. ICML 2024"`) {
		t.Errorf("bundle content:\n%s", data)
	}
}

func openTestRun(t *testing.T, dryRun bool) (*run, string) {
	t.Helper()
	cfg := config.Default()
	cfg.StateDB = filepath.Join(t.TempDir(), "state", "state.db")
	cfg.DryRun = dryRun
	r := startRun("bib", &cfg, &runFlags{})
	t.Cleanup(r.close)
	return r, cfg.StateDB
}

func recordedRuns(t *testing.T, path string) ([]storage.Run, []storage.Emitted) {
	t.Helper()
	db, err := storage.OpenStateDB(path)
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer db.Close()
	runs, err := db.Runs(0)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	emitted, err := db.ListEmitted(0)
	if err != nil {
		t.Fatalf("ListEmitted() error = %v", err)
	}
	return runs, emitted
}

func TestStartRun_RecordsNothingBeforeWriting(t *testing.T) {
	r, path := openTestRun(t, false)
	r.close()
	r.close()

	runs, _ := recordedRuns(t, path)
	if len(runs) != 0 {
		t.Errorf("runs = %+v, want none for a run that wrote nothing", runs)
	}
}

func TestRunRecord(t *testing.T) {
	r, path := openTestRun(t, false)
	w := bundle.NewWriter(t.TempDir())
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, emitted, err := emitRecords(w, testRecords(), r.id, r.mode, end)
	if err != nil {
		t.Fatalf("emitRecords() error = %v", err)
	}
	r.record(emitted, w.Count(), end)
	r.close()

	runs, rows := recordedRuns(t, path)
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].ID != r.id || runs[0].Mode != "bib" || runs[0].Written != 2 || !runs[0].FinishedAt.Equal(end) {
		t.Errorf("run = %+v", runs[0])
	}
	if len(rows) != 2 {
		t.Errorf("got %d emitted rows, want 2", len(rows))
	}
}

func TestRunRecord_DryRun(t *testing.T) {
	r, path := openTestRun(t, true)
	r.record([]storage.Emitted{{Slug: "x-2024", TitleKey: "x", Title: "X", Year: 2024, Source: "bib", RunID: r.id}}, 1, time.Now())
	r.close()

	runs, rows := recordedRuns(t, path)
	if len(runs) != 0 || len(rows) != 0 {
		t.Errorf("dry run recorded runs=%d rows=%d", len(runs), len(rows))
	}
}

func TestAppendBib(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	existing := `@article{other,
  title = {Graph Nets and Friends},
  doi = {10.1/GRAPH}
}
`
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	recs := testRecords()
	n, err := appendBib(path, recs)
	if err != nil {
		t.Fatalf("appendBib() error = %v", err)
	}
	if n != 1 {
		t.Errorf("appendBib() appended %d, want 1 (the DOI match is already present)", n)
	}

	// A second pass finds everything already there.
	n, err = appendBib(path, recs)
	if err != nil || n != 0 {
		t.Errorf("second appendBib() = %d, %v; want 0, nil", n, err)
	}

	entries, err := bibtex.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Key() != "DBLP:conf/icml/SmithL24" {
		t.Errorf("entries = %v", entries)
	}
}

func TestCollectAuthorIDs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ids.txt")
	os.WriteFile(file, []byte("https://scholar.google.com/citations?user=FILEIDFILEID\nCONFIGCONFIG\n"), 0644)

	cfg := config.Default()
	cfg.ScholarURLs = []string{"https://scholar.google.com/citations?user=CONFIGCONFIG&hl=en"}
	cfg.ScholarURLFile = file

	got, err := collectAuthorIDs(&cfg, []string{"ARGARGARGARG", "CONFIGCONFIG"})
	if err != nil {
		t.Fatalf("collectAuthorIDs() error = %v", err)
	}
	want := "CONFIGCONFIG FILEIDFILEID ARGARGARGARG"
	if strings.Join(got, " ") != want {
		t.Errorf("collectAuthorIDs() = %q, want %q", got, want)
	}
}

func TestRunFlagsApply(t *testing.T) {
	cfg := config.Default()
	f := runFlags{out: "/tmp/pubs", dryRun: true, noProbe: true}
	f.apply(&cfg)

	if cfg.OutDir != "/tmp/pubs" || !cfg.DryRun || cfg.Probe.Enabled {
		t.Errorf("cfg after apply = out %q dry %v probe %v", cfg.OutDir, cfg.DryRun, cfg.Probe.Enabled)
	}

	// Unset flags leave config values alone.
	cfg = config.Default()
	cfg.DryRun = true
	(&runFlags{}).apply(&cfg)
	if !cfg.DryRun || cfg.OutDir != "content/publication" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a-longer-slug-2024", 10, "a-longe..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
