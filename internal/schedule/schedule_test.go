package schedule

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/card"
	"github.com/kevinmichaelchen/trend-watch/internal/logging"
)

type fakeRunner struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   chan card.Kind
	hold    time.Duration
}

func (f *fakeRunner) Run(_ context.Context, kind card.Kind) {
	n := f.active.Add(1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(f.hold)
	f.active.Add(-1)
	if f.calls != nil {
		f.calls <- kind
	}
}

func testCtx() context.Context {
	return logging.WithLogger(context.Background(), logging.Discard())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    int
		wantErr bool
	}{
		{
			name: "defaults",
			entries: []Entry{
				{Name: "report", Spec: "30 9 * * 3,6", Kind: card.KindReport},
				{Name: "weekly", Spec: "0 10 * * 0", Kind: card.KindWeekly},
			},
			want: 2,
		},
		{
			name: "weekly disabled",
			entries: []Entry{
				{Name: "report", Spec: "30 9 * * 3,6"},
				{Name: "weekly", Spec: ""},
			},
			want: 1,
		},
		{
			name:    "invalid spec",
			entries: []Entry{{Name: "report", Spec: "every tuesday"}},
			wantErr: true,
		},
		{
			name:    "six fields rejected",
			entries: []Entry{{Name: "report", Spec: "0 30 9 * * 3"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(&fakeRunner{}, nil, tt.entries...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := len(s.Entries()); got != tt.want {
				t.Errorf("entries = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRun_Serialized(t *testing.T) {
	runner := &fakeRunner{hold: 5 * time.Millisecond}
	s, err := New(runner, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.run(testCtx(), Entry{Name: "report"})
		}()
	}
	wg.Wait()

	if got := runner.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", got)
	}
}

func TestRun_SkipsWhenCancelled(t *testing.T) {
	runner := &fakeRunner{calls: make(chan card.Kind, 1)}
	s, _ := New(runner, time.UTC)

	ctx, cancel := context.WithCancel(testCtx())
	cancel()
	s.run(ctx, Entry{Name: "report"})

	select {
	case <-runner.calls:
		t.Error("job ran after cancellation")
	default:
	}
}

func TestServe_StartupRunAndShutdown(t *testing.T) {
	runner := &fakeRunner{calls: make(chan card.Kind, 4)}
	// Specs that will not fire during the test.
	s, err := New(runner, time.UTC,
		Entry{Name: "report", Spec: "0 0 1 1 *", Kind: card.KindReport},
		Entry{Name: "weekly", Spec: "0 0 2 1 *", Kind: card.KindWeekly},
	)
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), logging.New(&logs, "info", "text")))
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	select {
	case kind := <-runner.calls:
		if kind != card.KindReport {
			t.Errorf("startup job kind = %v, want report", kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("startup run did not happen")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if got := strings.Count(logs.String(), "next run scheduled"); got != 2 {
		t.Errorf("next-run log lines = %d, want 2\n%s", got, logs.String())
	}
}
