package bot

import (
	"sort"

	"github.com/SanyCska/serials-bot/internal/textutil"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

// rankResults orders search results by similarity to the user's query, with
// provider popularity breaking ties, and truncates to limit.
func rankResults(query string, results []tmdb.Result, limit int) []tmdb.Result {
	if len(results) == 0 {
		return nil
	}

	queryPrint := textutil.NewFingerprint(query)
	type scored struct {
		result tmdb.Result
		score  float64
	}
	ranked := make([]scored, 0, len(results))
	for _, result := range results {
		score := textutil.CosineSimilarity(queryPrint, textutil.NewFingerprint(result.Name))
		ranked = append(ranked, scored{result: result, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].result.Popularity > ranked[j].result.Popularity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]tmdb.Result, 0, len(ranked))
	for _, item := range ranked {
		out = append(out, item.result)
	}
	return out
}
