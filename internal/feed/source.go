package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ErrAuthorNotFound means a source has nothing for the requested author.
var ErrAuthorNotFound = errors.New("author not found")

// Source supplies the publications of one author.
type Source interface {
	Fetch(ctx context.Context, authorID string) ([]Entry, error)
}

// DirSource reads <Dir>/<authorID>.json.
type DirSource struct {
	Dir string
}

// Fetch implements Source.
func (s DirSource) Fetch(ctx context.Context, authorID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir, authorID+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", authorID, ErrAuthorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading feed file: %w", err)
	}
	entries, err := DecodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Cache stores fetched entries per author.
type Cache interface {
	Load(authorID string) ([]Entry, bool, error)
	Store(authorID string, entries []Entry) error
}

// CachedSource serves fresh cache hits and fills the cache on misses.
type CachedSource struct {
	src   Source
	cache Cache
	log   zerolog.Logger
}

// NewCachedSource wraps src with cache.
func NewCachedSource(src Source, cache Cache, log zerolog.Logger) *CachedSource {
	return &CachedSource{src: src, cache: cache, log: log}
}

// Fetch implements Source. Cache failures are logged and bypassed.
func (c *CachedSource) Fetch(ctx context.Context, authorID string) ([]Entry, error) {
	entries, ok, err := c.cache.Load(authorID)
	if err != nil {
		c.log.Warn().Str("author", authorID).Err(err).Msg("cache read failed")
	}
	if ok {
		c.log.Debug().Str("author", authorID).Int("entries", len(entries)).Msg("cache hit")
		return entries, nil
	}

	entries, err = c.src.Fetch(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Store(authorID, entries); err != nil {
		c.log.Warn().Str("author", authorID).Err(err).Msg("cache write failed")
	}
	return entries, nil
}
