package dedup

import (
	"testing"

	"github.com/matsen/pubfold/internal/reference"
)

func rec(title string, year, month int, fields map[string]string) reference.Record {
	return reference.Record{
		Title:     title,
		Authors:   []string{"A. Smith", "B. Lee"},
		Published: reference.PublicationDate{Year: year, Month: month, Day: 1},
		Fields:    fields,
	}
}

func TestBatch_Stage1PrefersNonArxiv(t *testing.T) {
	in := []reference.Record{
		rec("Scaling Laws For X", 2024, 3, map[string]string{"journal": "CoRR", "eprint": "2403.12345"}),
		rec("Scaling Laws for X", 2024, 1, map[string]string{"booktitle": "Proc. Foo 2024"}),
	}

	out := Batch(in)
	if len(out) != 1 {
		t.Fatalf("Batch() returned %d records, want 1", len(out))
	}
	if out[0].Fields["booktitle"] != "Proc. Foo 2024" {
		t.Errorf("kept %v, want the booktitle record", out[0].Fields)
	}
}

func TestBatch_Stage1AllArxivKeepsFirst(t *testing.T) {
	in := []reference.Record{
		rec("Same Title", 2024, 1, map[string]string{"journal": "CoRR", "eprint": "2401.00001"}),
		rec("same title!", 2024, 2, map[string]string{"journal": "CoRR", "eprint": "2402.00002"}),
	}

	out := Batch(in)
	if len(out) != 1 || out[0].Fields["eprint"] != "2401.00001" {
		t.Errorf("Batch() = %+v, want first arXiv record", out)
	}
}

func TestBatch_Stage2(t *testing.T) {
	const (
		title1 = "Scaling Laws for Neural Language Models"
		title2 = "Scaling Laws for Neural Language Models: Revised Edition"
	)
	tests := []struct {
		name      string
		first     map[string]string
		second    map[string]string
		wantFirst bool
	}{
		{
			name:      "both arxiv keeps later",
			first:     map[string]string{"journal": "CoRR", "eprint": "2001.08361"},
			second:    map[string]string{"journal": "CoRR", "eprint": "2001.08361"},
			wantFirst: false,
		},
		{
			name:      "kept non-arxiv beats arxiv",
			first:     map[string]string{"booktitle": "Proc. P"},
			second:    map[string]string{"booktitle": "Proc. P", "eprinttype": "arXiv"},
			wantFirst: true,
		},
		{
			name:      "incoming non-arxiv replaces arxiv",
			first:     map[string]string{"booktitle": "Proc. P", "eprinttype": "arXiv"},
			second:    map[string]string{"booktitle": "Proc. P"},
			wantFirst: false,
		},
		{
			name:      "both non-arxiv keeps first",
			first:     map[string]string{"journal": "JMLR", "volume": "3"},
			second:    map[string]string{"journal": "JMLR", "volume": "3"},
			wantFirst: true,
		},
		{
			name:      "empty publication data still groups",
			first:     map[string]string{},
			second:    map[string]string{},
			wantFirst: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := rec(title1, 2020, 1, tt.first)
			second := rec(title2, 2020, 1, tt.second)

			out := Batch([]reference.Record{first, second})
			if len(out) != 1 {
				t.Fatalf("Batch() returned %d records, want 1", len(out))
			}
			gotFirst := out[0].Title == title1
			if gotFirst != tt.wantFirst {
				t.Errorf("kept %q, wantFirst=%v", out[0].Title, tt.wantFirst)
			}
		})
	}
}

func TestBatch_DifferentPublicationDataKeepsBoth(t *testing.T) {
	in := []reference.Record{
		rec("Scaling Laws for Neural Language Models", 2020, 1, map[string]string{"journal": "CoRR"}),
		rec("Scaling Laws for Neural Language Models Part Two", 2021, 1, map[string]string{"booktitle": "ICML"}),
	}
	if out := Batch(in); len(out) != 2 {
		t.Errorf("Batch() returned %d records, want 2", len(out))
	}
}

func TestBatch_DropsIncomplete(t *testing.T) {
	noAuthors := rec("No Authors", 2024, 1, nil)
	noAuthors.Authors = nil
	in := []reference.Record{
		rec("", 2024, 1, nil),
		noAuthors,
		rec("Kept", 2024, 1, nil),
	}

	out := Batch(in)
	if len(out) != 1 || out[0].Title != "Kept" {
		t.Errorf("Batch() = %+v, want only Kept", out)
	}
}

func TestBatch_NewestFirst(t *testing.T) {
	in := []reference.Record{
		rec("Alpha", 2022, 5, nil),
		rec("Beta", 2024, 1, nil),
		rec("Gamma", 2022, 11, nil),
		rec("Delta", 2022, 5, nil),
	}

	out := Batch(in)
	want := []string{"Beta", "Gamma", "Alpha", "Delta"}
	if len(out) != len(want) {
		t.Fatalf("Batch() returned %d records, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].Title != w {
			t.Errorf("out[%d] = %q, want %q", i, out[i].Title, w)
		}
	}
}
