package bundle

import (
	"fmt"
	"strings"

	"github.com/matsen/pubfold/internal/reference"
)

// IndexFile is the page file inside each bundle directory.
const IndexFile = "index.md"

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

// ISODate formats a date as a UTC-midnight instant.
func ISODate(d reference.PublicationDate) string {
	return d.String() + "T00:00:00Z"
}

// Render produces the front matter for one record. Field order is fixed.
func Render(rec reference.Record) string {
	var b strings.Builder
	date := ISODate(rec.Published)

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", quote(rec.Title))
	b.WriteString("authors:\n")
	for _, a := range rec.Authors {
		fmt.Fprintf(&b, "  - %s\n", quote(a))
	}
	fmt.Fprintf(&b, "date: '%s'\n", date)
	fmt.Fprintf(&b, "publishDate: '%s'\n", date)
	b.WriteString("draft: false\n")
	fmt.Fprintf(&b, "publication: %s\n", quote(rec.Venue))
	fmt.Fprintf(&b, "url_pdf: %s\n", quote(rec.PDFURL))
	b.WriteString("image:\n")
	b.WriteString("  preview_only: true\n")
	b.WriteString("---\n")
	return b.String()
}
