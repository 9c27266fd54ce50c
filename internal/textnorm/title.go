package textnorm

import (
	"strings"
)

// TitleKey reduces a title to a comparison key: lowercase ASCII letters and
// digits separated by single spaces. It is never displayed.
func TitleKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingSpace := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// TitlesOverlap reports whether two titles plausibly name the same paper:
// their keys are equal or one key is a contiguous substring of the other.
// This lets a truncated or subtitled variant match its full counterpart.
//
// Titles without any ASCII letters or digits have an empty key, which would
// be a substring of everything; those compare by normalized, case-folded
// equality instead.
func TitlesOverlap(a, b string) bool {
	ka, kb := TitleKey(a), TitleKey(b)
	if ka == "" || kb == "" {
		return strings.EqualFold(Normalize(a), Normalize(b))
	}
	return ka == kb || strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

// FirstWords returns the first n words of the title key.
func FirstWords(title string, n int) string {
	words := strings.Fields(TitleKey(title))
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
