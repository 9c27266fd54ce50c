package reference

import (
	"regexp"
	"strings"
)

// authorSep is the literal separator used by citation databases.
const authorSep = " and "

var (
	// "A.Smith" -> "A. Smith"; "A.B.Smith" -> "A. B. Smith"
	dotLetter = regexp.MustCompile(`\.(\S)`)
	spaces    = regexp.MustCompile(`\s+`)
)

// SplitAuthors splits an author list on the literal " and ", trims each name
// and drops empties.
func SplitAuthors(s string) []string {
	var out []string
	for _, name := range strings.Split(s, authorSep) {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// JoinAuthors is the inverse of SplitAuthors.
func JoinAuthors(authors []string) string {
	return strings.Join(authors, authorSep)
}

// NormalizeAuthorName puts a space after every initial's dot and collapses
// whitespace. Feed profiles often glue initials to surnames.
func NormalizeAuthorName(name string) string {
	name = dotLetter.ReplaceAllString(name, ". $1")
	return strings.TrimSpace(spaces.ReplaceAllString(name, " "))
}
