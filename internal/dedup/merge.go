package dedup

import (
	"unicode/utf8"

	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/textnorm"
)

// Outcome says what Merger.Add did with a record.
type Outcome int

const (
	// Appended means no kept record overlapped; the record is new.
	Appended Outcome = iota
	// Replaced means the record displaced an overlapping kept record.
	Replaced
	// Discarded means an overlapping kept record was retained.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case Replaced:
		return "replaced"
	case Discarded:
		return "discarded"
	}
	return "unknown"
}

// Merger folds records from several sources into one list, keeping the
// richest of each group of overlapping titles.
//
// Overlap is substring containment and is not transitive, so each record is
// compared only with the kept representatives, in the order they were kept.
// The result is deterministic for a fixed input order but depends on that
// order.
type Merger struct {
	weights Weights
	kept    []reference.Record
}

// NewMerger creates an empty merger.
func NewMerger(w Weights) *Merger {
	return &Merger{weights: w}
}

// Add folds one record in. Records without a title or authors are
// discarded.
func (m *Merger) Add(rec reference.Record) (Outcome, int) {
	if rec.Title == "" || len(rec.Authors) == 0 {
		return Discarded, -1
	}
	for i, old := range m.kept {
		if !textnorm.TitlesOverlap(rec.Title, old.Title) {
			continue
		}
		if m.prefer(rec, old) {
			m.kept[i] = rec
			return Replaced, i
		}
		return Discarded, i
	}
	m.kept = append(m.kept, rec)
	return Appended, len(m.kept) - 1
}

// prefer reports whether incoming should displace kept: higher score, then
// longer title, then later year.
func (m *Merger) prefer(incoming, kept reference.Record) bool {
	si, sk := m.weights.Score(incoming), m.weights.Score(kept)
	if si != sk {
		return si > sk
	}
	li, lk := utf8.RuneCountInString(rawTitle(incoming)), utf8.RuneCountInString(rawTitle(kept))
	if li != lk {
		return li > lk
	}
	return incoming.Published.Year > kept.Published.Year
}

// Records returns the kept records in first-kept order.
func (m *Merger) Records() []reference.Record {
	out := make([]reference.Record, len(m.kept))
	copy(out, m.kept)
	return out
}

// Len returns the number of kept records.
func (m *Merger) Len() int { return len(m.kept) }

// Merge folds records in order with the given weights.
func Merge(records []reference.Record, w Weights) []reference.Record {
	m := NewMerger(w)
	for _, rec := range records {
		m.Add(rec)
	}
	return m.Records()
}
