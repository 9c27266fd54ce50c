package bibtex

import (
	"fmt"
	"strings"

	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/textnorm"
)

// ToBibTeX converts a record to BibTeX format.
func ToBibTeX(rec reference.Record) string {
	entryType := determineEntryType(rec)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CitationKey(rec)))

	if len(rec.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(reference.JoinAuthors(rec.Authors))))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(rec.Title)))

	switch {
	case rec.Venue == reference.VenueArXiv && rec.ArXivID != "":
		b.WriteString("  journal = {CoRR},\n")
		b.WriteString(fmt.Sprintf("  eprinttype = {arXiv},\n  eprint = {%s},\n", rec.ArXivID))
	case rec.Venue != "":
		fieldName := "journal"
		if entryType == "inproceedings" {
			fieldName = "booktitle"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(rec.Venue)))
	}

	b.WriteString(fmt.Sprintf("  year = {%d},\n", rec.Published.Year))

	if rec.Published.Month > 0 {
		b.WriteString(fmt.Sprintf("  month = {%d},\n", rec.Published.Month))
	}

	if rec.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", rec.DOI))
	}

	if rec.PDFURL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", rec.PDFURL))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple records to BibTeX format.
func ToBibTeXList(recs []reference.Record) string {
	var entries []string
	for _, rec := range recs {
		entries = append(entries, ToBibTeX(rec))
	}
	return strings.Join(entries, "\n")
}

// CitationKey returns the record's own key when it has one, otherwise
// <surname><year>-<first title word>.
func CitationKey(rec reference.Record) string {
	if rec.Key != "" && rec.Source.Type == reference.SourceBibTeX {
		return rec.Key
	}
	surname := "anon"
	if len(rec.Authors) > 0 {
		parts := strings.Fields(rec.Authors[0])
		if len(parts) > 0 {
			surname = textnorm.TitleKey(parts[len(parts)-1])
		}
	}
	word := textnorm.FirstWords(rec.Title, 1)
	return fmt.Sprintf("%s%d-%s", strings.ReplaceAll(surname, " ", ""), rec.Published.Year, word)
}

func determineEntryType(rec reference.Record) string {
	venue := strings.ToLower(rec.Venue)

	// Preprints
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "article"
	}

	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	return "article"
}

func escapeLatex(s string) string {
	// & first, so later replacements are not re-escaped
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
