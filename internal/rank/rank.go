// Package rank merges search results into fixed-size top lists.
package rank

import (
	"sort"

	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

// UniqSortTop drops repos without a full name, keeps the first occurrence of
// each full name, stable-sorts by star count descending and returns at most n
// repos. The input slice is not modified.
func UniqSortTop(repos []models.Repo, n int) []models.Repo {
	seen := make(map[string]bool, len(repos))
	out := make([]models.Repo, 0, len(repos))
	for _, r := range repos {
		if r.FullName == "" || seen[r.FullName] {
			continue
		}
		seen[r.FullName] = true
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Stars > out[j].Stars
	})

	if n < 0 {
		n = 0
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ByRecentStars stable-sorts repos in place by RecentStars descending, so
// equal counts keep their star ordering.
func ByRecentStars(repos []models.Repo) {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].RecentStars > repos[j].RecentStars
	})
}
