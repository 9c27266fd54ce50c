// Package reference defines the canonical publication record that every
// source is reduced to before deduplication and output.
package reference

import "fmt"

// Record is one publication after normalization and inference.
type Record struct {
	// Identity
	Key     string `json:"key,omitempty"`      // Citation key or feed position, for logs
	DOI     string `json:"doi,omitempty"`      // Carried through for export indexing
	ArXivID string `json:"arxiv_id,omitempty"` // Derived, never displayed

	// Metadata
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Venue   string   `json:"venue"` // Human venue, the sentinel "arXiv", or empty

	// Publication Date
	Published PublicationDate `json:"published"`

	// Empty means no PDF link is known.
	PDFURL string `json:"url_pdf"`

	// Raw source fields with the abstract removed.
	Fields map[string]string `json:"fields,omitempty"`

	// Import Tracking
	Source ImportSource `json:"source"`
}

// VenueArXiv is the venue given to records known only as arXiv preprints.
const VenueArXiv = "arXiv"

// PublicationDate represents a publication date. Month defaults to 1 when
// unknown; Day is always 1 for inferred dates.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String formats the date as YYYY-MM-DD, filling unknown parts with 1.
func (d PublicationDate) String() string {
	month, day := d.Month, d.Day
	if month < 1 || month > 12 {
		month = 1
	}
	if day < 1 || day > 31 {
		day = 1
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, month, day)
}

// Compare orders dates chronologically, returning -1, 0 or +1.
func (d PublicationDate) Compare(o PublicationDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// ImportSource tracks where a record was read from.
type ImportSource struct {
	Type string `json:"type"` // bibtex, scholar
	ID   string `json:"id"`   // Author ID or input file
}

// Source types.
const (
	SourceBibTeX  = "bibtex"
	SourceScholar = "scholar"
)
