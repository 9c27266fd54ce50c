package pdflink

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CitationPDFURL returns the absolute URL named by a page's
// <meta name="citation_pdf_url">, or "".
func CitationPDFURL(page io.Reader, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return ""
	}
	var found string
	doc.Find("meta[name='citation_pdf_url']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content, _ := s.Attr("content")
		found = strings.TrimSpace(content)
		return found == ""
	})
	if found == "" {
		return ""
	}
	ref, err := url.Parse(found)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
