// Package textnorm cleans scraped and exported text before it is compared or
// persisted.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// invisible lists zero-width and formatting code points that scraped pages
// leave inside titles.
var invisible = runes.In(&unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00ad, Hi: 0x00ad, Stride: 1}, // soft hyphen
		{Lo: 0x200b, Hi: 0x200f, Stride: 1}, // zero-width space/joiners, LRM, RLM
		{Lo: 0x2060, Hi: 0x2060, Stride: 1}, // word joiner
		{Lo: 0xfeff, Hi: 0xfeff, Stride: 1}, // BOM
	},
})

// cleanRunes builds a fresh chain per call; transform.Chain keeps state and
// must not be shared.
func cleanRunes() transform.Transformer {
	return transform.Chain(
		norm.NFKC,
		runes.Remove(invisible),
		runes.Remove(runes.In(unicode.Mn)),
	)
}

// Normalize strips markup, decodes entities, folds Unicode to NFKC, drops
// invisible characters and nonspacing marks, and collapses whitespace.
//
// Normalize is idempotent: the steps are repeated until the text stops
// changing, so an entity-encoded tag such as "&lt;b&gt;" is removed here
// rather than on a later call.
func Normalize(s string) string {
	for {
		next := normalizeOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	if out, _, err := transform.String(cleanRunes(), s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}
