// Package venue derives a display venue, a publication date and arXiv
// provenance from a record's raw fields.
package venue

import (
	"regexp"
	"strings"

	"github.com/matsen/pubfold/internal/reference"
)

// notAVenue matches journal/proceedings strings that describe a status
// rather than an outlet.
var notAVenue = regexp.MustCompile(`(?i)preprint|under review|submitted|manuscript|tech(nical)? report`)

// venueFields are consulted in order: proceedings before journals.
var venueFields = []string{"booktitle", "conference", "journal", "venue"}

// InferVenue returns the first acceptable proceedings or journal name, else
// reference.VenueArXiv when the record shows arXiv origin, else "".
func InferVenue(fields map[string]string) string {
	for _, k := range venueFields {
		v := get(fields, k)
		if v == "" || !IsRealVenue(v) {
			continue
		}
		return v
	}

	if LooksArxiv(fields) {
		return reference.VenueArXiv
	}
	return ""
}

// IsRealVenue reports whether a venue string names an actual outlet. CoRR
// and arXiv names are preprint servers, not venues.
func IsRealVenue(v string) bool {
	lower := strings.ToLower(v)
	return !notAVenue.MatchString(v) && lower != "corr" && !strings.Contains(lower, "arxiv")
}

// LooksArxiv reports whether any journal or link field mentions arXiv, or an
// arXiv identifier can be extracted.
func LooksArxiv(fields map[string]string) bool {
	j := get(fields, "journal")
	if strings.Contains(strings.ToLower(j), "arxiv") || strings.EqualFold(j, "corr") {
		return true
	}
	for _, k := range urlFields {
		if strings.Contains(strings.ToLower(get(fields, k)), "arxiv") {
			return true
		}
	}
	return ExtractArxivID(fields) != ""
}

// IsNonArxivPub reports whether the record has a proceedings field or a
// journal other than CoRR.
func IsNonArxivPub(fields map[string]string) bool {
	if get(fields, "booktitle") != "" {
		return true
	}
	j := get(fields, "journal")
	return j != "" && !strings.EqualFold(j, "corr")
}

// IsArxivPub reports whether the record is listed as CoRR or has an arXiv
// eprint type.
func IsArxivPub(fields map[string]string) bool {
	return strings.EqualFold(get(fields, "journal"), "corr") ||
		strings.EqualFold(get(fields, "eprinttype"), "arxiv")
}

// PublicationData formats proceedings (or journal plus volume) and pages,
// joined with ", ". Records with none of these give "".
func PublicationData(fields map[string]string) string {
	var parts []string
	if bt := get(fields, "booktitle"); bt != "" {
		parts = append(parts, bt)
	} else if j := get(fields, "journal"); j != "" {
		if vol := get(fields, "volume"); vol != "" {
			j += " " + vol
		}
		parts = append(parts, j)
	}
	if pages := get(fields, "pages"); pages != "" {
		parts = append(parts, "pp. "+pages)
	}
	return strings.Join(parts, ", ")
}
