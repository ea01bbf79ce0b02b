package resolver

import (
	"context"

	"github.com/arunsworld/nursery"
	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
)

// aggregateSearch fans one concurrent search request out per query and
// merges the results. Each request is isolated: a failing query
// contributes zero hits and never aborts its siblings. Results are
// collected into per-query slots and flattened in query-priority order
// only after every request has settled, so dedup (and therefore
// tie-breaking downstream) is deterministic with respect to query
// priority, not network timing.
func (r *Resolver) aggregateSearch(ctx context.Context, queries []string, excluded map[string]bool) []SearchHit {
	slots := make([][]SearchHit, len(queries))

	jobs := make([]nursery.ConcurrentJob, 0, len(queries))
	for i, query := range queries {
		i, query := i, query
		jobs = append(jobs, func(ctx context.Context, _ chan error) {
			hits, err := r.search.Search(ctx, query)
			if err != nil {
				// Contained per-query failure: log and leave the slot empty.
				log.Warnf("%s Query %q failed, contributing zero hits: %v", logcolors.LogSearch, query, err)
				return
			}
			slots[i] = hits
		})
	}

	// Jobs never write to the error channel, so the join always succeeds.
	if err := nursery.RunConcurrentlyWithContext(ctx, jobs...); err != nil {
		log.Errorf("%s Search fan-out aborted: %v", logcolors.LogSearch, err)
		return nil
	}

	var merged []SearchHit
	seen := make(map[string]bool)
	for _, hits := range slots {
		for _, hit := range hits {
			if seen[hit.ID] || excluded[hit.ID] {
				continue
			}
			seen[hit.ID] = true
			merged = append(merged, hit)
		}
	}

	log.Debugf("%s %d queries yielded %d unique hits", logcolors.LogSearch, len(queries), len(merged))
	return merged
}
