// Package storage persists fetched feed entries as JSONL and the record of
// emitted bundles in SQLite.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/matsen/pubfold/internal/feed"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadJSONL reads every line of a JSONL file. A missing file reads as empty.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening jsonl file: %w", err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading jsonl file: %w", err)
	}
	return items, nil
}

// WriteJSONL replaces a JSONL file. The new content is written to a
// temporary file first and renamed into place.
func WriteJSONL[T any](path string, items []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating jsonl file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("encoding item %d: %w", i, err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing jsonl file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing jsonl file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing jsonl file: %w", err)
	}
	return nil
}

// EntryCache keeps one JSONL file of feed entries per author. Files older
// than the TTL are ignored.
type EntryCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewEntryCache creates a cache in dir. A zero TTL never expires.
func NewEntryCache(dir string, ttl time.Duration) (*EntryCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &EntryCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *EntryCache) path(authorID string) string {
	return filepath.Join(c.dir, authorID+".jsonl")
}

// Load implements feed.Cache.
func (c *EntryCache) Load(authorID string) ([]feed.Entry, bool, error) {
	info, err := os.Stat(c.path(authorID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("checking cache: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return nil, false, nil
	}

	entries, err := ReadJSONL[feed.Entry](c.path(authorID))
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// Store implements feed.Cache.
func (c *EntryCache) Store(authorID string, entries []feed.Entry) error {
	return WriteJSONL(c.path(authorID), entries)
}

// Clear removes every cached author file and returns how many were removed.
func (c *EntryCache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.jsonl"))
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return 0, fmt.Errorf("removing %s: %w", m, err)
		}
	}
	return len(matches), nil
}
