package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kevinmichaelchen/trend-watch/internal/card"
	"github.com/kevinmichaelchen/trend-watch/internal/config"
	"github.com/kevinmichaelchen/trend-watch/internal/github"
	"github.com/kevinmichaelchen/trend-watch/internal/llm"
	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/notify"
	"github.com/kevinmichaelchen/trend-watch/internal/pipeline"
	"github.com/kevinmichaelchen/trend-watch/internal/schedule"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "trend-watch",
		Short: "GitHub trending repos per category → Feishu cards",
		Long: `Searches GitHub for the most-starred recent repositories in each configured
category and posts a report card to a Feishu/Lark webhook.

Without a subcommand the mode follows the environment: SINGLE_RUN=1 runs one
job and exits (WEEKLY_REPORT=1 selects the weekly digest), otherwise the
scheduler starts.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.SingleRun {
				return a.runOnce(cmd, kindFor(a.cfg.WeeklyReport), false)
			}
			return a.serve(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(a.runCmd(), a.serveCmd(), a.categoriesCmd())
	return root
}

// setup loads configuration and attaches the logger to the command context.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level, cfg.LogFormat)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

func (a *app) runCmd() *cobra.Command {
	var weekly, dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one report job and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runOnce(cmd, kindFor(weekly || a.cfg.WeeklyReport), dryRun)
		},
	}
	cmd.Flags().BoolVar(&weekly, "weekly", false, "Send the weekly digest instead of the standard report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the card JSON instead of posting it")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the standard report now, then on schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the effective category table",
		RunE: func(cmd *cobra.Command, args []string) error {
			printCategories(cmd.OutOrStdout(), a.cfg)
			return nil
		},
	}
}

func (a *app) runOnce(cmd *cobra.Command, kind card.Kind, dryRun bool) error {
	ctx := cmd.Context()
	runner, err := a.runner(ctx, cmd.OutOrStdout(), dryRun)
	if err != nil {
		return err
	}
	runner.Run(ctx, kind)
	return nil
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx := cmd.Context()
	runner, err := a.runner(ctx, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	sched, err := schedule.New(runner, loc,
		schedule.Entry{Name: "report", Spec: a.cfg.ReportSchedule, Kind: card.KindReport},
		schedule.Entry{Name: "weekly", Spec: a.cfg.WeeklySchedule, Kind: card.KindWeekly},
	)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	for _, e := range sched.Entries() {
		logger.Info("schedule registered", "entry", e.Name, "spec", e.Spec, "tz", loc.String())
	}
	if err := sched.Serve(ctx); err != nil {
		return err
	}
	logger.Info("scheduler stopped")
	return nil
}

func (a *app) runner(ctx context.Context, out io.Writer, dryRun bool) (*pipeline.Runner, error) {
	cfg := a.cfg
	logger := logging.FromContext(ctx)

	var notifier notify.Notifier
	if dryRun {
		notifier = &notify.Writer{Out: out}
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		notifier = notify.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret)
	}

	gh, err := github.NewClient(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		return nil, err
	}
	summarizer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	logger.Info("configured",
		"categories", len(cfg.Categories),
		"top_n", cfg.TopN,
		"github_token", gh.Authenticated(),
		"llm", summarizer.Enabled(),
		"signed_webhook", cfg.WebhookSecret != "",
		"dry_run", dryRun)
	if !gh.Authenticated() {
		logger.Warn("GITHUB_TOKEN not set; search and stargazer calls use the anonymous rate limit")
	}

	return pipeline.New(cfg, gh, summarizer, notifier), nil
}

func kindFor(weekly bool) card.Kind {
	if weekly {
		return card.KindWeekly
	}
	return card.KindReport
}

func printCategories(w io.Writer, cfg *config.Config) {
	for _, c := range cfg.Categories {
		fmt.Fprintf(w, "%s\n", c.Name)
		for _, q := range c.Queries {
			fmt.Fprintf(w, "  %s\n", q)
		}
	}
	fmt.Fprintf(w, "\ntop %d per category, window %d days, tiers %s\n",
		cfg.TopN, cfg.DaysAgo, tierNames())
}

func tierNames() string {
	names := make([]string, len(github.DefaultTiers))
	for i, t := range github.DefaultTiers {
		names[i] = t.Name
	}
	return strings.Join(names, " → ")
}
