package github

import (
	"context"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/models"
	"github.com/kevinmichaelchen/trend-watch/internal/pacer"
	"github.com/kevinmichaelchen/trend-watch/internal/rank"
)

// Searcher runs a single search query. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, q Query) []models.Repo
}

// Tier is one pass of the tiered search: a date qualifier and a per-query
// page size.
type Tier struct {
	Name      string
	Qualifier Qualifier
	PerPage   int
}

// DefaultTiers prefers recently pushed repos, then recently updated ones,
// then falls back to an undated search with a larger page.
var DefaultTiers = []Tier{
	{Name: "pushed", Qualifier: QualifierPushed, PerPage: 10},
	{Name: "updated", Qualifier: QualifierUpdated, PerPage: 10},
	{Name: "fallback", Qualifier: QualifierNone, PerPage: 15},
}

// TieredStrategy fills a top-N list for a category by running its queries
// through successive tiers. Each tier merges into the previous tier's top
// list, and later tiers only run while the list is short.
//
// Ranking only sees what the search API returned for each query (at most
// PerPage items), so the result is a top list of sampled candidates rather
// than a true global top-N.
type TieredStrategy struct {
	Searcher Searcher
	Pacer    pacer.Pacer
	Tiers    []Tier
	TopN     int
	DaysAgo  int
	Now      func() time.Time
}

// Search returns at most TopN distinct repos for cat, ranked by stars.
func (s *TieredStrategy) Search(ctx context.Context, cat models.Category) []models.Repo {
	logger := logging.FromContext(ctx).With("category", cat.Name)

	tiers := s.Tiers
	if tiers == nil {
		tiers = DefaultTiers
	}
	p := s.Pacer
	if p == nil {
		p = pacer.Nop{}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	since := DateDaysAgo(now(), s.DaysAgo)

	var top []models.Repo
	for _, tier := range tiers {
		collected := append([]models.Repo(nil), top...)
		hits := 0
		for _, expr := range cat.Queries {
			if err := p.Wait(ctx); err != nil {
				logger.Warn("search interrupted", "tier", tier.Name, "err", err)
				return top
			}
			found := s.Searcher.Search(ctx, Query{
				Expr:      expr,
				Qualifier: tier.Qualifier,
				Since:     since,
				PerPage:   tier.PerPage,
			})
			hits += len(found)
			collected = append(collected, found...)
		}

		top = rank.UniqSortTop(collected, s.TopN)
		logger.Info("tier complete", "tier", tier.Name, "hits", hits, "kept", len(top))
		if len(top) >= s.TopN {
			return top
		}
	}
	return top
}
