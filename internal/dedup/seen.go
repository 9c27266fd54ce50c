package dedup

import (
	"sort"

	"github.com/matsen/pubfold/internal/textnorm"
)

// SeenTitles is the set of title keys already emitted, either earlier in
// this run or by a previous run loaded from state.
type SeenTitles struct {
	keys map[string]struct{}
}

// NewSeenTitles creates a set holding the given title keys.
func NewSeenTitles(keys ...string) *SeenTitles {
	s := &SeenTitles{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k != "" {
			s.keys[k] = struct{}{}
		}
	}
	return s
}

// Seen reports whether a title's key is in the set.
func (s *SeenTitles) Seen(title string) bool {
	_, ok := s.keys[textnorm.TitleKey(title)]
	return ok
}

// Mark adds a title's key to the set.
func (s *SeenTitles) Mark(title string) {
	if k := textnorm.TitleKey(title); k != "" {
		s.keys[k] = struct{}{}
	}
}

// Keys returns the keys in sorted order.
func (s *SeenTitles) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of keys.
func (s *SeenTitles) Len() int { return len(s.keys) }
