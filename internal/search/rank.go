package search

import (
	"sort"
	"strings"

	"github.com/cinehub/cinehub/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Rank orders catalog results by how well their titles match query.
// Lower scores sort first; ties keep the backend's order.
func Rank(movies []domain.Movie, query string) []domain.Movie {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(movies) < 2 {
		return movies
	}

	type rankedMovie struct {
		movie domain.Movie
		score int
	}

	ranked := make([]rankedMovie, len(movies))
	for i, m := range movies {
		ranked[i] = rankedMovie{movie: m, score: matchScore(strings.ToLower(m.Title), query)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})

	out := make([]domain.Movie, len(ranked))
	for i, r := range ranked {
		out[i] = r.movie
	}
	return out
}

// Suggest returns the titles that fuzzy-match query, best first
func Suggest(query string, titles []string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	matches := fuzzy.RankFindFold(query, titles)
	sort.Stable(matches)

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Target
	}
	return out
}

// matchScore scores title against query. Lower is better.
func matchScore(title, query string) int {
	if title == query {
		return 0
	}
	if strings.HasPrefix(title, query) {
		return 10
	}
	if strings.Contains(title, query) {
		return 50
	}
	return 100 + fuzzy.LevenshteinDistance(query, title)
}
