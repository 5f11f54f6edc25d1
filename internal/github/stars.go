package github

import (
	"context"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

// StarCounter counts recent stargazers of a repository. *Client implements it.
type StarCounter interface {
	RecentStars(ctx context.Context, fullName string, since time.Time, pageLimit int) int
}

// Enricher annotates repos with the number of stars gained in the trailing
// Window.
type Enricher struct {
	Counter   StarCounter
	Window    time.Duration
	PageLimit int
	Now       func() time.Time
}

// Enrich sets RecentStars on every repo in place. The window start is taken
// once, so all repos are measured against the same instant.
func (e *Enricher) Enrich(ctx context.Context, repos []models.Repo) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	since := now().Add(-e.Window)
	logger := logging.FromContext(ctx)

	for i := range repos {
		if ctx.Err() != nil {
			return
		}
		repos[i].RecentStars = e.Counter.RecentStars(ctx, repos[i].FullName, since, e.PageLimit)
		logger.Debug("recent stars", "repo", repos[i].FullName, "count", repos[i].RecentStars)
	}
}
