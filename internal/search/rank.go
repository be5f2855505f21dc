package search

import (
	"sort"

	"github.com/hyperjump/cvsearch/internal/models"
)

// Rank drops documents with no matches, orders the rest by TotalMatches descending
// and keeps at most topN. Ties keep their input order. Rank fields are set 1-based.
// topN <= 0 yields an empty result.
func Rank(results []*models.DocumentResult, topN int) []*models.DocumentResult {
	ranked := make([]*models.DocumentResult, 0, len(results))
	if topN <= 0 {
		return ranked
	}
	for _, r := range results {
		if r != nil && r.TotalMatches > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalMatches > ranked[j].TotalMatches
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i, r := range ranked {
		r.Rank = i + 1
	}
	return ranked
}
