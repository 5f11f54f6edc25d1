package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

// ErrMissingWebhook is returned by Validate when no webhook URL is configured.
var ErrMissingWebhook = errors.New("WEBHOOK_URL is not set")

type Config struct {
	GitHubToken  string
	GitHubAPIURL string

	SingleRun    bool
	WeeklyReport bool

	WebhookURL     string
	WebhookSecret  string
	WebhookKeyword string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	TopN       int
	DaysAgo    int
	Categories []models.Category

	ReportSchedule string
	WeeklySchedule string
	TimeZone       string

	RequestInterval  time.Duration
	CategoryInterval time.Duration
	WeeklyInterval   time.Duration

	Weekly Weekly

	LogLevel  string
	LogFormat string
}

// Weekly tunes the weekly digest: candidates come from repos pushed in the
// last LookbackDays, are cut to Candidates by stars, then re-ranked by stars
// gained in the last WindowDays.
type Weekly struct {
	LookbackDays int
	Candidates   int
	WindowDays   int
	PageLimit    int
}

// Load reads .env (if present) and the environment. Unset values take their
// defaults; malformed numbers, durations and category files are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	e := env{errs: &errs}

	cfg := &Config{
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: os.Getenv("GITHUB_API_URL"),

		SingleRun:    flag(os.Getenv("SINGLE_RUN")),
		WeeklyReport: flag(os.Getenv("WEEKLY_REPORT")),

		WebhookURL:     first(os.Getenv("WEBHOOK_URL"), os.Getenv("FEISHU_WEBHOOK")),
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		WebhookKeyword: e.str("WEBHOOK_KEYWORD", "github"),

		LLMBaseURL: first(os.Getenv("LLM_BASE_URL"), os.Getenv("OPENAI_BASE")),
		LLMAPIKey:  first(os.Getenv("LLM_API_KEY"), os.Getenv("OPENAI_API_KEY")),
		LLMModel:   first(os.Getenv("LLM_MODEL"), os.Getenv("OPENAI_MODEL")),

		TopN:    e.positive("TOP_N", 3),
		DaysAgo: e.positive("DAYS_AGO", 3),

		ReportSchedule: e.str("REPORT_SCHEDULE", "30 9 * * 3,6"),
		WeeklySchedule: e.str("WEEKLY_SCHEDULE", "0 10 * * 0"),
		TimeZone:       os.Getenv("TZ_NAME"),

		RequestInterval:  e.duration("REQUEST_INTERVAL", 400*time.Millisecond),
		CategoryInterval: e.duration("CATEGORY_INTERVAL", 1500*time.Millisecond),
		WeeklyInterval:   e.duration("WEEKLY_INTERVAL", 300*time.Millisecond),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "text"),
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gpt-4o-mini"
	}

	// Authenticated clients can afford deeper stargazer pagination.
	pageLimit := 1
	if cfg.GitHubToken != "" {
		pageLimit = 3
	}
	cfg.Weekly = Weekly{
		LookbackDays: e.positive("WEEKLY_LOOKBACK_DAYS", 7),
		Candidates:   e.positive("WEEKLY_CANDIDATES", 8),
		WindowDays:   e.positive("WEEKLY_WINDOW_DAYS", 3),
		PageLimit:    e.positive("WEEKLY_PAGE_LIMIT", pageLimit),
	}

	cfg.Categories = DefaultCategories()
	if path := os.Getenv("CATEGORIES_FILE"); path != "" {
		cats, err := LoadCategories(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Categories = cats
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks what a run that posts to the webhook needs.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return ErrMissingWebhook
	}
	return nil
}

// Location resolves TimeZone, defaulting to the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// flag accepts the same truthy spellings as the shell wrappers: "1" or "true".
func flag(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true"
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type env struct {
	errs *[]error
}

func (e env) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e env) positive(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		*e.errs = append(*e.errs, fmt.Errorf("%s: expected a positive integer, got %q", key, s))
		return def
	}
	return v
}

func (e env) duration(key string, def time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		*e.errs = append(*e.errs, fmt.Errorf("%s: expected a duration like 400ms, got %q", key, s))
		return def
	}
	return d
}
