package bibtex

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Index records the keys and DOIs already present in a .bib file so an
// export can append only new entries.
type Index struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// DOIs maps DOI values to citation keys
	DOIs map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// Add records one parsed entry.
func (idx *Index) Add(e Entry) {
	key := e.Key()
	if key == "" {
		return
	}
	idx.Keys[key] = true
	if doi := normalizeDOI(e.Get("doi")); doi != "" {
		idx.DOIs[doi] = key
	}
}

// Mark records a key and DOI that are about to be written.
func (idx *Index) Mark(key, doi string) {
	idx.Keys[key] = true
	if doi = normalizeDOI(doi); doi != "" {
		idx.DOIs[doi] = key
	}
}

// HasEntry returns true if the entry already exists. DOI is the primary
// match; citation key is the fallback.
func (idx *Index) HasEntry(key, doi string) bool {
	if doi != "" {
		if _, exists := idx.DOIs[normalizeDOI(doi)]; exists {
			return true
		}
	}
	return idx.Keys[key]
}

// IndexFile builds an index from an existing .bib file. A missing file gives
// an empty index.
func IndexFile(path string) (*Index, error) {
	idx := NewIndex()
	entries, err := ParseFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}
	for _, e := range entries {
		idx.Add(e)
	}
	return idx, nil
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(doi)
}

// AppendFile appends BibTeX content to a file, creating it if needed.
func AppendFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening bib file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString("\n" + content); err != nil {
		return fmt.Errorf("appending to bib file: %w", err)
	}
	return nil
}
