package feed

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var bareID = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// ExtractScholarID accepts a bare profile ID or a profile URL and returns
// the ID, or "" when there is none. An ID taken from a URL must have the
// same shape as a bare one.
func ExtractScholarID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if bareID.MatchString(s) {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("user"); bareID.MatchString(id) {
		return id
	}
	return ""
}

// Inputs are the places author IDs can come from.
type Inputs struct {
	Env  string   // comma-separated IDs or URLs
	File string   // one ID or URL per line
	Args []string // IDs or URLs; a single argument naming a file is read as one
}

// CollectIDs gathers IDs from every input, in order, without duplicates.
func CollectIDs(in Inputs) ([]string, error) {
	var raw []string
	if in.Env != "" {
		raw = append(raw, strings.Split(in.Env, ",")...)
	}

	if in.File != "" {
		lines, err := readLines(in.File)
		if err != nil {
			return nil, err
		}
		raw = append(raw, lines...)
	}

	if len(in.Args) == 1 && isFile(in.Args[0]) {
		lines, err := readLines(in.Args[0])
		if err != nil {
			return nil, err
		}
		raw = append(raw, lines...)
	} else {
		raw = append(raw, in.Args...)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, r := range raw {
		id := ExtractScholarID(r)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ID file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ID file: %w", err)
	}
	return lines, nil
}
