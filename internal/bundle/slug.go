// Package bundle turns finished records into Hugo page bundles and repairs
// bundles written by earlier runs.
package bundle

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxSlugLen bounds the title part of a slug, before the year suffix.
const MaxSlugLen = 80

// emptySlug stands in for titles with no ASCII letters or digits.
const emptySlug = "publication"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the bundle directory name: the lowercased title with & spelled
// out, braces dropped and every other non-alphanumeric run turned into one
// hyphen, cut to MaxSlugLen on a hyphen boundary, then -<year>.
func Slug(title string, year int) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = strings.Trim(nonSlug.ReplaceAllString(s, "-"), "-")

	if len(s) > MaxSlugLen {
		s = truncateOnHyphen(s, MaxSlugLen)
	}
	if s == "" {
		s = emptySlug
	}
	return fmt.Sprintf("%s-%d", s, year)
}

func truncateOnHyphen(s string, limit int) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "-") {
		add := len(part)
		if b.Len() > 0 {
			add++
		}
		if b.Len()+add > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		// A single word longer than the limit.
		return strings.TrimRight(s[:limit], "-")
	}
	return b.String()
}
