// Package pacer throttles outbound requests. Search and stargazer calls wait
// on a Pacer before each request so a run stays under the API rate limits.
package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next request may be sent or ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Interval lets one request through every d. The first request after a quiet
// period passes immediately.
type Interval struct {
	limiter *rate.Limiter
}

// Every returns an Interval pacer with period d. A non-positive d never blocks.
func Every(d time.Duration) Pacer {
	if d <= 0 {
		return Nop{}
	}
	return &Interval{limiter: rate.NewLimiter(rate.Every(d), 1)}
}

func (p *Interval) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Nop never blocks.
type Nop struct{}

func (Nop) Wait(ctx context.Context) error { return ctx.Err() }

// Counting wraps a Pacer and records how many times Wait was called.
type Counting struct {
	Next  Pacer
	Calls int
}

func (c *Counting) Wait(ctx context.Context) error {
	c.Calls++
	if c.Next == nil {
		return ctx.Err()
	}
	return c.Next.Wait(ctx)
}
