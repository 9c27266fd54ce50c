package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/matsen/pubfold/internal/reference"
)

// Weights are the richness-score contributions. They are configuration, so
// they can be recalibrated without touching the merge.
type Weights struct {
	Venue  int `yaml:"venue" json:"venue"`
	DOI    int `yaml:"doi" json:"doi"`
	Pages  int `yaml:"pages" json:"pages"`
	Volume int `yaml:"volume" json:"volume"`
	Number int `yaml:"number" json:"number"`
	Author int `yaml:"author" json:"author"`
	PDF    int `yaml:"pdf" json:"pdf"`

	// The title term is min(runes(raw title), TitleCap) / TitleDivisor.
	TitleDivisor int `yaml:"title_divisor" json:"title_divisor"`
	TitleCap     int `yaml:"title_cap" json:"title_cap"`
}

// DefaultWeights returns the stock weight set.
func DefaultWeights() Weights {
	return Weights{
		Venue:        5,
		DOI:          3,
		Pages:        2,
		Volume:       1,
		Number:       1,
		Author:       1,
		PDF:          2,
		TitleDivisor: 40,
		TitleCap:     120,
	}
}

// Score ranks how complete a record is. Higher is more authoritative.
func (w Weights) Score(rec reference.Record) int {
	score := 0
	if rec.Venue != "" {
		score += w.Venue
	}
	if rec.DOI != "" || field(rec, "doi") != "" {
		score += w.DOI
	}
	if field(rec, "pages") != "" {
		score += w.Pages
	}
	if field(rec, "volume") != "" {
		score += w.Volume
	}
	if field(rec, "number") != "" {
		score += w.Number
	}
	if field(rec, "author") != "" || len(rec.Authors) > 0 {
		score += w.Author
	}
	if rec.PDFURL != "" {
		score += w.PDF
	}
	if w.TitleDivisor > 0 {
		score += min(utf8.RuneCountInString(rawTitle(rec)), w.TitleCap) / w.TitleDivisor
	}
	return score
}

func field(rec reference.Record, name string) string {
	return strings.TrimSpace(rec.Fields[name])
}

// rawTitle is the title as the source supplied it, before normalization.
// Records built without source fields fall back to the normalized title.
func rawTitle(rec reference.Record) string {
	if t := rec.Fields["title"]; t != "" {
		return t
	}
	return rec.Title
}
