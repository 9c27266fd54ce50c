// Package dedup collapses records that describe the same paper.
//
// Batch handles a single authoritative export in two stages. Merge folds
// records from independent feeds by information richness.
package dedup

import (
	"sort"

	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/textnorm"
	"github.com/matsen/pubfold/internal/venue"
)

// stage2Words is how many leading title words form the stage-2 key.
const stage2Words = 5

// Batch deduplicates an export: stage 1 by exact title key, stage 2 by
// leading title words plus publication data, then newest first.
func Batch(records []reference.Record) []reference.Record {
	out := stage2(stage1(records))
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.Compare(out[j].Published) > 0
	})
	return out
}

// stage1 keeps, per title key, the first non-arXiv publication, or the first
// record when every member is arXiv.
func stage1(records []reference.Record) []reference.Record {
	var order []string
	groups := make(map[string][]reference.Record)
	for _, rec := range records {
		if !complete(rec) {
			continue
		}
		key := textnorm.TitleKey(rec.Title)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	kept := make([]reference.Record, 0, len(order))
	for _, key := range order {
		group := groups[key]
		chosen := group[0]
		for _, rec := range group {
			if venue.IsNonArxivPub(rec.Fields) {
				chosen = rec
				break
			}
		}
		kept = append(kept, chosen)
	}
	return kept
}

type stage2Key struct {
	words   string
	pubData string
}

// stage2 resolves records sharing leading title words and publication data.
// A non-arXiv record beats an arXiv one; between two arXiv records the later
// one wins; between two non-arXiv records the first stays.
func stage2(records []reference.Record) []reference.Record {
	var kept []reference.Record
	seen := make(map[stage2Key]int)

	for _, rec := range records {
		if !complete(rec) {
			continue
		}
		key := stage2Key{
			words:   textnorm.FirstWords(rec.Title, stage2Words),
			pubData: venue.PublicationData(rec.Fields),
		}
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(kept)
			kept = append(kept, rec)
			continue
		}

		prev := kept[idx]
		prevArxiv, currArxiv := venue.IsArxivPub(prev.Fields), venue.IsArxivPub(rec.Fields)
		prevNon, currNon := venue.IsNonArxivPub(prev.Fields), venue.IsNonArxivPub(rec.Fields)

		switch {
		case prevNon && currArxiv:
		case currNon && prevArxiv:
			kept[idx] = rec
		case prevArxiv && currArxiv:
			kept[idx] = rec
		}
	}
	return kept
}

func complete(rec reference.Record) bool {
	return rec.Title != "" && len(rec.Authors) > 0
}
