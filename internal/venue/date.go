package venue

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/pubfold/internal/reference"
)

var (
	monthName    = regexp.MustCompile(`^([A-Za-z]{3,})`)
	monthNumeral = regexp.MustCompile(`^(\d{1,2})(?:\D|$)`)
	leadingYear  = regexp.MustCompile(`^(\d{4})`)
)

var monthsByPrefix = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseMonth reads a month field: a name of three or more letters matched on
// its first three, or a one- or two-digit numeral clamped to 1-12.
func ParseMonth(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if m := monthName.FindStringSubmatch(s); m != nil {
		n, ok := monthsByPrefix[strings.ToLower(m[1][:3])]
		return n, ok
	}
	if m := monthNumeral.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return min(max(n, 1), 12), true
	}
	return 0, false
}

// ParseYear reads the leading four digits of a year field.
func ParseYear(s string) (int, bool) {
	m := leadingYear.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	y, _ := strconv.Atoi(m[1])
	return y, true
}

// InferDate resolves a record's publication date. The year comes from the
// year or pub_year field, falling back to the arXiv identifier only when
// neither is present. The month comes from the month field, then the arXiv
// identifier, then defaults to 1. Day is always 1. ok is false when no year
// can be found.
func InferDate(fields map[string]string, now time.Time) (reference.PublicationDate, bool) {
	arxivYear, arxivMonth, arxivOK := ArxivDate(ExtractArxivID(fields), now)

	year, ok := ParseYear(get(fields, "year"))
	if !ok {
		year, ok = ParseYear(get(fields, "pub_year"))
	}
	if !ok && arxivOK {
		year, ok = arxivYear, true
	}
	if !ok {
		return reference.PublicationDate{}, false
	}

	month, found := ParseMonth(get(fields, "month"))
	if !found && arxivOK {
		month, found = arxivMonth, true
	}
	if !found {
		month = 1
	}

	return reference.PublicationDate{Year: year, Month: month, Day: 1}, true
}
