// Package rank turns per-seed exploration outcomes into one ranked,
// thresholded list of articles.
package rank

import (
	"sort"

	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/simhash"
)

// Rank drops entries scoring below minRelevance, sorts the rest by score
// descending and keeps the first topK. Ties keep their input order.
// topK <= 0 keeps everything. The input is not modified.
func Rank(results []models.ScoredArticle, minRelevance float64, topK int) []models.ScoredArticle {
	ranked := make([]models.ScoredArticle, 0, len(results))
	for _, r := range results {
		if r.Verdict.Score >= minRelevance {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Verdict.Score > ranked[j].Verdict.Score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// Dedup removes entries whose body is within maxDistance SimHash bits of
// an earlier entry, so the higher ranked copy of a story survives.
// maxDistance <= 0 disables it.
func Dedup(ranked []models.ScoredArticle, maxDistance int) []models.ScoredArticle {
	if maxDistance <= 0 || len(ranked) < 2 {
		return ranked
	}

	kept := make([]models.ScoredArticle, 0, len(ranked))
	prints := make([]uint64, 0, len(ranked))

outer:
	for _, r := range ranked {
		fp := simhash.Fingerprint(r.Article.BodyText)
		if fp != 0 {
			for _, seen := range prints {
				if simhash.Similar(fp, seen, maxDistance) {
					continue outer
				}
			}
			prints = append(prints, fp)
		}
		kept = append(kept, r)
	}
	return kept
}

// Select ranks results, removes near-duplicates and then truncates, so a
// duplicate never takes a top-K slot from a distinct story.
func Select(results []models.ScoredArticle, minRelevance float64, topK, dedupDistance int) []models.ScoredArticle {
	ranked := Dedup(Rank(results, minRelevance, 0), dedupDistance)
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
