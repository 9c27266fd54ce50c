package venue

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	corrAbsID = regexp.MustCompile(`abs/(\d{4}\.\d{4,5})`)
	doiArxiv  = regexp.MustCompile(`(?i)arxiv\.(\d{4}\.\d{4,5})`)
	modernID  = regexp.MustCompile(`^(\d{2})(\d{2})\.\d{4,5}(?:v\d+)?$`)
)

// urlFields are the fields that may carry a link to the paper.
var urlFields = []string{"url", "ee", "eprint_url", "pub_url"}

// ExtractArxivID returns the arXiv identifier a record carries, or "" when
// the record is not an arXiv record. Checked in order: an explicit arXiv
// eprint type, a CoRR journal with an eprint or abs/<id> volume, then a
// DOI-style arXiv.<id> url. A bare arxiv.org link does not make a published
// paper an arXiv record.
func ExtractArxivID(fields map[string]string) string {
	if strings.EqualFold(get(fields, "eprinttype"), "arxiv") {
		if id := get(fields, "eprint"); id != "" {
			return id
		}
	}

	if strings.EqualFold(get(fields, "journal"), "corr") {
		if id := get(fields, "eprint"); id != "" {
			return id
		}
		if m := corrAbsID.FindStringSubmatch(get(fields, "volume")); m != nil {
			return m[1]
		}
	}

	if m := doiArxiv.FindStringSubmatch(get(fields, "url")); m != nil {
		return m[1]
	}
	return ""
}

// ArxivDate decodes the year and month of a modern YYMM.NNNN(N) identifier.
// Identifiers that decode to a year after now are taken to be pre-2000
// listings and yield ok == false rather than a guessed century.
func ArxivDate(id string, now time.Time) (year, month int, ok bool) {
	m := modernID.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return 0, 0, false
	}
	yy, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm < 1 || mm > 12 {
		return 0, 0, false
	}
	year = 2000 + yy
	if year > now.Year() {
		return 0, 0, false
	}
	return year, mm, true
}

func get(fields map[string]string, name string) string {
	return strings.TrimSpace(fields[name])
}
