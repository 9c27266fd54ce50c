package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *StateDB {
	t.Helper()

	db, err := OpenStateDB(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordEmitted(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	items := []Emitted{
		{Slug: "2024-scaling-laws", TitleKey: "scaling laws", Title: "Scaling Laws", Year: 2024, Source: "bibtex", RunID: "r1", EmittedAt: at},
		{Slug: "2022-graph-nets", TitleKey: "graph nets", Title: "Graph Nets", Year: 2022, Source: "bibtex", RunID: "r1", EmittedAt: at},
	}
	if err := db.RecordEmitted(items); err != nil {
		t.Fatalf("RecordEmitted() error = %v", err)
	}

	// Re-emitting a slug replaces it.
	items[0].RunID = "r2"
	if err := db.RecordEmitted(items[:1]); err != nil {
		t.Fatalf("RecordEmitted() error = %v", err)
	}

	got, err := db.ListEmitted(0)
	if err != nil {
		t.Fatalf("ListEmitted() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListEmitted() returned %d rows, want 2", len(got))
	}
	if got[0].Slug != "2024-scaling-laws" || got[0].RunID != "r2" {
		t.Errorf("first row = %+v", got[0])
	}
	if !got[1].EmittedAt.Equal(at) {
		t.Errorf("EmittedAt = %v, want %v", got[1].EmittedAt, at)
	}

	limited, _ := db.ListEmitted(1)
	if len(limited) != 1 {
		t.Errorf("ListEmitted(1) returned %d rows", len(limited))
	}

	keys, err := db.TitleKeys()
	if err != nil {
		t.Fatalf("TitleKeys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "graph nets" || keys[1] != "scaling laws" {
		t.Errorf("TitleKeys() = %v", keys)
	}
}

func TestRuns(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.BeginRun("r1", "bib", start); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if err := db.BeginRun("r2", "scholar", start.Add(time.Hour)); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if err := db.FinishRun("r1", 7, start.Add(time.Minute)); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := db.Runs(0)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs() returned %d, want 2", len(runs))
	}
	if runs[0].ID != "r2" || !runs[0].FinishedAt.IsZero() {
		t.Errorf("runs[0] = %+v, want unfinished r2", runs[0])
	}
	if runs[1].Written != 7 || runs[1].Mode != "bib" {
		t.Errorf("runs[1] = %+v", runs[1])
	}
}

func TestOpenStateDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenStateDB(path)
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	db.RecordEmitted([]Emitted{{Slug: "2024-x", TitleKey: "x", Title: "X", Year: 2024, Source: "scholar", RunID: "r"}})
	db.Close()

	db, err = OpenStateDB(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	keys, _ := db.TitleKeys()
	if len(keys) != 1 {
		t.Errorf("TitleKeys() after reopen = %v", keys)
	}
}
