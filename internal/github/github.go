package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

const (
	DefaultBaseURL = "https://api.github.com/"
	httpTimeout    = 30 * time.Second
	stargazerPage  = 100
)

// Client is a thin wrapper around the GitHub REST API. Every method degrades
// to an empty result on failure; errors are logged, never returned.
type Client struct {
	gh            *gh.Client
	authenticated bool
}

// NewClient builds a client for baseURL ("" for api.github.com). A non-empty
// token is sent as a bearer token.
func NewClient(ctx context.Context, token, baseURL string) (*Client, error) {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = httpTimeout

	client := gh.NewClient(hc)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client, authenticated: token != ""}, nil
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool { return c.authenticated }

// Search runs one repository search sorted by stars. Failures yield nil.
func (c *Client) Search(ctx context.Context, q Query) []models.Repo {
	logger := logging.FromContext(ctx)

	opts := &gh.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: q.PerPage},
	}
	result, _, err := c.gh.Search.Repositories(ctx, q.String(), opts)
	if err != nil {
		logFailure(logger.With("query", q.String()), "search failed", err)
		return nil
	}

	repos := make([]models.Repo, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toRepo(r))
	}
	return repos
}

// RecentStars counts stargazers of fullName ("owner/name") who starred at or
// after since. It reads at most pageLimit pages of 100 and stops at the first
// short or empty page. Failures end the count early.
func (c *Client) RecentStars(ctx context.Context, fullName string, since time.Time, pageLimit int) int {
	logger := logging.FromContext(ctx).With("repo", fullName)

	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		logger.Warn("malformed repository name")
		return 0
	}

	count := 0
	for page := 1; page <= pageLimit; page++ {
		stars, _, err := c.gh.Activity.ListStargazers(ctx, owner, name, &gh.ListOptions{
			Page:    page,
			PerPage: stargazerPage,
		})
		if err != nil {
			logFailure(logger.With("page", page), "listing stargazers failed", err)
			break
		}
		if len(stars) == 0 {
			break
		}
		count += countSince(stars, since)
		if len(stars) < stargazerPage {
			break
		}
	}
	return count
}

func countSince(stars []*gh.Stargazer, since time.Time) int {
	n := 0
	for _, s := range stars {
		if s == nil || s.StarredAt == nil {
			continue
		}
		if !s.StarredAt.Time.Before(since) {
			n++
		}
	}
	return n
}

func toRepo(r *gh.Repository) models.Repo {
	return models.Repo{
		Owner:       r.GetOwner().GetLogin(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Language:    r.Language,
	}
}

type warner interface {
	Warn(msg interface{}, keyvals ...interface{})
}

func logFailure(logger warner, msg string, err error) {
	var rle *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	switch {
	case errors.As(err, &rle):
		logger.Warn(msg, "reason", "rate limit", "reset", rle.Rate.Reset.Time, "err", err)
	case errors.As(err, &abuse):
		logger.Warn(msg, "reason", "secondary rate limit", "retry_after", abuse.GetRetryAfter(), "err", err)
	default:
		logger.Warn(msg, "err", err)
	}
}
