// Package pdflink turns the links attached to a record into at most one
// direct PDF URL.
package pdflink

import (
	"net/url"
	"strings"
)

// Rewrite maps a known landing-page URL to its direct-PDF form. Unknown
// hosts, and anything that does not parse, pass through unchanged.
func Rewrite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Host)
	path := u.Path

	switch {
	case strings.Contains(host, "arxiv.org"):
		if id, ok := strings.CutPrefix(path, "/abs/"); ok && id != "" {
			return "https://arxiv.org/pdf/" + id + ".pdf"
		}
		if strings.HasPrefix(path, "/pdf/") && !strings.HasSuffix(path, ".pdf") {
			return raw + ".pdf"
		}

	case strings.Contains(host, "openreview.net"):
		if id := u.Query().Get("id"); strings.HasPrefix(path, "/forum") && id != "" {
			return "https://openreview.net/pdf?id=" + url.QueryEscape(id)
		}

	case strings.Contains(host, "dl.acm.org"):
		if rest, ok := strings.CutPrefix(path, "/doi/"); ok && !strings.HasPrefix(rest, "pdf/") {
			for _, view := range []string{"abs/", "full/", "fullHtml/"} {
				rest = strings.TrimPrefix(rest, view)
			}
			u.Path = "/doi/pdf/" + rest
			return u.String()
		}

	case strings.Contains(host, "ieeexplore.ieee.org"):
		if strings.Contains(path, "/document/") {
			parts := strings.Split(strings.Trim(path, "/"), "/")
			return "https://ieeexplore.ieee.org/stamp/stamp.jsp?tp=&arnumber=" + parts[len(parts)-1]
		}

	case strings.Contains(host, "aclanthology.org"):
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 1 && parts[0] != "" && !strings.HasSuffix(parts[0], ".pdf") {
			return "https://aclanthology.org/" + parts[0] + ".pdf"
		}
	}
	return raw
}

// LooksLikePDF reports whether a URL has the shape of a PDF endpoint: a
// .pdf suffix or one of the known PDF-serving paths.
func LooksLikePDF(raw string) bool {
	if raw == "" {
		return false
	}
	u := strings.ToLower(raw)
	if strings.HasSuffix(u, ".pdf") {
		return true
	}
	return strings.Contains(u, "openreview.net/pdf") ||
		strings.Contains(u, "/doi/pdf") ||
		strings.Contains(u, "ieeexplore.ieee.org/stamp/stamp.jsp") ||
		strings.Contains(u, "arxiv.org/pdf/")
}

// Candidates expands raw links into the ordered probe list: each link's
// rewritten form followed by the link itself, duplicates removed.
func Candidates(urls []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		add(Rewrite(raw))
		add(raw)
	}
	return out
}
