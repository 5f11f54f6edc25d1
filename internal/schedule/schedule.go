// Package schedule runs report jobs on cron schedules for the long-running
// service mode.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kevinmichaelchen/trend-watch/internal/card"
	"github.com/kevinmichaelchen/trend-watch/internal/logging"
)

// Runner executes one job. *pipeline.Runner implements it.
type Runner interface {
	Run(ctx context.Context, kind card.Kind)
}

// Entry is one recurring job: a standard five-field cron spec and the kind
// of card it produces.
type Entry struct {
	Name string
	Spec string
	Kind card.Kind
}

type Scheduler struct {
	runner  Runner
	loc     *time.Location
	entries []Entry

	// mu serializes job bodies so two runs never overlap.
	mu sync.Mutex
}

// New validates the entries and returns a Scheduler. Entries with an empty
// Spec are disabled and dropped.
func New(runner Runner, loc *time.Location, entries ...Entry) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{runner: runner, loc: loc}
	for _, e := range entries {
		if e.Spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(e.Spec); err != nil {
			return nil, fmt.Errorf("parsing %s schedule %q: %w", e.Name, e.Spec, err)
		}
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Entries returns the enabled entries in registration order.
func (s *Scheduler) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Serve fires one standard report immediately, then runs the entries on
// their schedules until ctx is cancelled. It waits for a running job to
// finish before returning.
func (s *Scheduler) Serve(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	cl := cronLogger{logger: logger}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	for _, e := range s.entries {
		if _, err := c.AddFunc(e.Spec, func() { s.run(ctx, e) }); err != nil {
			return fmt.Errorf("registering %s schedule: %w", e.Name, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.run(gctx, Entry{Name: "startup", Kind: card.KindReport})
		return nil
	})

	c.Start()
	for _, entry := range c.Entries() {
		logger.Info("next run scheduled", "at", entry.Next.Format(time.RFC3339))
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping scheduler")
		<-c.Stop().Done()
		return nil
	})

	return g.Wait()
}

// run executes one job while holding the scheduler lock.
func (s *Scheduler) run(ctx context.Context, e Entry) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	logging.FromContext(ctx).Info("job triggered", "entry", e.Name)
	s.runner.Run(ctx, e.Kind)
}

// cronLogger routes cron's own logging through the context logger. Cron's
// info chatter (wake-ups, schedule decisions) is demoted to debug.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
