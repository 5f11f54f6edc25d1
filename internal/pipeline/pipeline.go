package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kevinmichaelchen/trend-watch/internal/card"
	"github.com/kevinmichaelchen/trend-watch/internal/config"
	"github.com/kevinmichaelchen/trend-watch/internal/github"
	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/models"
	"github.com/kevinmichaelchen/trend-watch/internal/notify"
	"github.com/kevinmichaelchen/trend-watch/internal/pacer"
	"github.com/kevinmichaelchen/trend-watch/internal/rank"
)

// Strategy produces the ranked repos for one category.
type Strategy interface {
	Search(ctx context.Context, cat models.Category) []models.Repo
}

// Enricher fills in RecentStars.
type Enricher interface {
	Enrich(ctx context.Context, repos []models.Repo)
}

// Summarizer writes the one-line analysis shown under a weekly category.
type Summarizer interface {
	Summarize(ctx context.Context, category string, repos []models.Repo) string
}

// Runner executes report jobs. Both jobs walk the categories in order,
// build one card and hand it to the Notifier. Nothing is returned: every
// failure below this layer has already degraded to an empty result.
type Runner struct {
	Categories []models.Category

	Report        Strategy
	CategoryPacer pacer.Pacer

	Weekly     Strategy
	Enricher   Enricher
	Summarizer Summarizer
	WeeklyDays int

	Notifier notify.Notifier

	TopN    int
	DaysAgo int
	Keyword string
	Now     func() time.Time
}

// New wires a Runner from configuration.
func New(cfg *config.Config, gh *github.Client, summarizer Summarizer, notifier notify.Notifier) *Runner {
	return &Runner{
		Categories: cfg.Categories,
		Report: &github.TieredStrategy{
			Searcher: gh,
			Pacer:    pacer.Every(cfg.RequestInterval),
			Tiers:    github.DefaultTiers,
			TopN:     cfg.TopN,
			DaysAgo:  cfg.DaysAgo,
		},
		CategoryPacer: pacer.Every(cfg.CategoryInterval),
		Weekly: &github.TieredStrategy{
			Searcher: gh,
			Pacer:    pacer.Every(cfg.WeeklyInterval),
			Tiers:    []github.Tier{{Name: "pushed", Qualifier: github.QualifierPushed, PerPage: 10}},
			TopN:     cfg.Weekly.Candidates,
			DaysAgo:  cfg.Weekly.LookbackDays,
		},
		Enricher: &github.Enricher{
			Counter:   gh,
			Window:    time.Duration(cfg.Weekly.WindowDays) * 24 * time.Hour,
			PageLimit: cfg.Weekly.PageLimit,
		},
		Summarizer: summarizer,
		WeeklyDays: cfg.Weekly.WindowDays,
		Notifier:   notifier,
		TopN:       cfg.TopN,
		DaysAgo:    cfg.DaysAgo,
		Keyword:    cfg.WebhookKeyword,
	}
}

// Run executes one job of the given kind.
func (r *Runner) Run(ctx context.Context, kind card.Kind) {
	if kind == card.KindWeekly {
		r.RunWeekly(ctx)
		return
	}
	r.RunReport(ctx)
}

// RunReport searches every category with the tiered strategy and sends the
// trending report, or the no-update card when nothing was found.
func (r *Runner) RunReport(ctx context.Context) card.Card {
	ctx, logger := r.begin(ctx, "report")
	start := r.now()

	p := r.CategoryPacer
	if p == nil {
		p = pacer.Nop{}
	}

	var sections []models.Section
	for _, cat := range r.Categories {
		if err := p.Wait(ctx); err != nil {
			logger.Warn("report interrupted", "err", err)
			break
		}
		repos := r.Report.Search(ctx, cat)
		if len(repos) == 0 {
			logger.Info("category empty", "category", cat.Name)
			continue
		}
		sections = append(sections, models.Section{Category: cat.Name, Repos: repos})
	}

	c := card.Build(card.KindReport, sections, r.now(), card.Options{
		TopN:    r.TopN,
		DaysAgo: r.DaysAgo,
		Keyword: r.Keyword,
	})
	return r.finish(ctx, c, len(sections), start)
}

// RunWeekly gathers recently pushed candidates per category, re-ranks them
// by stars gained in the trailing window, keeps the top N and attaches a
// summary to each non-empty category.
func (r *Runner) RunWeekly(ctx context.Context) card.Card {
	ctx, logger := r.begin(ctx, "weekly")
	start := r.now()

	var sections []models.Section
	for _, cat := range r.Categories {
		if ctx.Err() != nil {
			logger.Warn("weekly interrupted", "err", ctx.Err())
			break
		}
		candidates := r.Weekly.Search(ctx, cat)
		r.Enricher.Enrich(ctx, candidates)
		rank.ByRecentStars(candidates)
		if len(candidates) > r.TopN {
			candidates = candidates[:r.TopN]
		}
		if len(candidates) == 0 {
			logger.Info("category empty", "category", cat.Name)
			continue
		}
		sections = append(sections, models.Section{
			Category: cat.Name,
			Repos:    candidates,
			Summary:  r.Summarizer.Summarize(ctx, cat.Name, candidates),
		})
	}

	c := card.Build(card.KindWeekly, sections, r.now(), card.Options{
		TopN:    r.TopN,
		DaysAgo: r.WeeklyDays,
		Keyword: r.Keyword,
	})
	return r.finish(ctx, c, len(sections), start)
}

// begin tags the context logger with a fresh run ID.
func (r *Runner) begin(ctx context.Context, job string) (context.Context, *log.Logger) {
	logger := logging.FromContext(ctx).With("job", job, "run", uuid.NewString())
	logger.Info("job started", "categories", len(r.Categories))
	return logging.WithLogger(ctx, logger), logger
}

func (r *Runner) finish(ctx context.Context, c card.Card, sections int, start time.Time) card.Card {
	r.Notifier.Notify(ctx, c)
	logging.FromContext(ctx).Info("job finished",
		"sections", sections,
		"card", c.Header.Template,
		"elapsed", r.now().Sub(start).Round(time.Millisecond))
	return c
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
