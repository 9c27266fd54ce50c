// Package feed models already-fetched author-profile publications and the
// sources that supply them.
package feed

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// FlexibleString can unmarshal from string, number, boolean or array JSON
// values. Arrays are joined with " and ", the author separator.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexibleString(strconv.FormatBool(b))
		return nil
	}

	var parts []FlexibleString
	if err := json.Unmarshal(data, &parts); err == nil {
		strs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				strs = append(strs, string(p))
			}
		}
		*f = FlexibleString(strings.Join(strs, " and "))
		return nil
	}

	// Nested objects carry nothing a record uses.
	if len(data) > 0 && data[0] == '{' {
		*f = ""
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// Entry is one publication from a scraped author profile.
type Entry struct {
	Bib       map[string]FlexibleString `json:"bib"`
	EprintURL string                    `json:"eprint_url,omitempty"`
	PubURL    string                    `json:"pub_url,omitempty"`
	URL       string                    `json:"url,omitempty"`
}

// Title returns the bib title.
func (e Entry) Title() string {
	return strings.TrimSpace(e.Fields()["title"])
}

// Fields flattens the entry into lowercased field names. Link fields from
// the entry itself are added under eprint_url, pub_url and url; a bib url
// takes precedence over the entry-level one.
func (e Entry) Fields() map[string]string {
	out := make(map[string]string, len(e.Bib)+3)
	for k, v := range e.Bib {
		out[strings.ToLower(k)] = strings.TrimSpace(v.String())
	}
	if e.EprintURL != "" {
		out["eprint_url"] = e.EprintURL
	}
	if e.PubURL != "" {
		out["pub_url"] = e.PubURL
	}
	if e.URL != "" && out["url"] == "" {
		out["url"] = e.URL
	}
	return out
}

// Links returns the PDF candidates in probe order: eprint_url then pub_url.
func (e Entry) Links() []string {
	var out []string
	for _, u := range []string{e.EprintURL, e.PubURL} {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// profile is the alternative file shape: a full author record with the
// publications nested inside.
type profile struct {
	Publications []Entry `json:"publications"`
}

// DecodeEntries reads either a JSON array of entries or an author object
// with a publications array.
func DecodeEntries(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decoding entries: %w", err)
		}
		return entries, nil
	}
	var p profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding author profile: %w", err)
	}
	return p.Publications, nil
}
