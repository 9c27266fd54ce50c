package pdflink

import (
	"context"

	"github.com/rs/zerolog"
)

// Resolver picks one PDF URL per record. Its probe cache lives as long as
// the resolver, so one resolver serves exactly one run.
type Resolver struct {
	prober Prober
	cache  map[string]Result
	log    zerolog.Logger

	probes int
	hits   int
}

// NewResolver creates a resolver. A nil prober disables network checks and
// leaves only the URL-shape fallback.
func NewResolver(prober Prober, log zerolog.Logger) *Resolver {
	return &Resolver{
		prober: prober,
		cache:  make(map[string]Result),
		log:    log,
	}
}

// Resolve returns the first candidate confirmed to serve a PDF, else the
// first that looks like a PDF endpoint, else "". Landing pages that name a
// citation_pdf_url add that URL to the end of the candidate list.
func (r *Resolver) Resolve(ctx context.Context, urls []string) string {
	cands := Candidates(urls)
	if len(cands) == 0 {
		return ""
	}

	if r.prober != nil {
		seen := make(map[string]bool, len(cands))
		for _, c := range cands {
			seen[c] = true
		}
		for i := 0; i < len(cands); i++ {
			res := r.probe(ctx, cands[i])
			if res.IsPDF {
				return cands[i]
			}
			if res.Landing != "" && !seen[res.Landing] {
				seen[res.Landing] = true
				cands = append(cands, res.Landing)
			}
		}
	}

	for _, c := range cands {
		if LooksLikePDF(c) {
			r.log.Debug().Str("url", c).Msg("accepting unverified PDF link")
			return c
		}
	}
	return ""
}

func (r *Resolver) probe(ctx context.Context, u string) Result {
	if res, ok := r.cache[u]; ok {
		r.hits++
		return res
	}
	r.probes++
	res := r.prober.Probe(ctx, u)
	r.cache[u] = res
	return res
}

// Stats reports how many URLs were probed and how many lookups the cache
// answered.
func (r *Resolver) Stats() (probes, cacheHits int) {
	return r.probes, r.hits
}
