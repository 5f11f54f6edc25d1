package github

import (
	"context"
	"testing"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/models"
	"github.com/kevinmichaelchen/trend-watch/internal/pacer"
)

// fakeSearcher answers every query of a tier with that tier's fixture, once
// per category (on the first expression only), and records the queries.
type fakeSearcher struct {
	byQualifier map[Qualifier][]models.Repo
	queries     []Query
}

func (f *fakeSearcher) Search(_ context.Context, q Query) []models.Repo {
	f.queries = append(f.queries, q)
	if q.Expr != "first" {
		return nil
	}
	return f.byQualifier[q.Qualifier]
}

func (f *fakeSearcher) calls(qual Qualifier) int {
	n := 0
	for _, q := range f.queries {
		if q.Qualifier == qual {
			n++
		}
	}
	return n
}

func r(name string, stars int) models.Repo {
	return models.Repo{FullName: "o/" + name, Name: name, Stars: stars}
}

func repoNames(repos []models.Repo) []string {
	out := make([]string, len(repos))
	for i, rp := range repos {
		out[i] = rp.Name
	}
	return out
}

func sameNames(t *testing.T, got []models.Repo, want ...string) {
	t.Helper()
	g := repoNames(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

var fixedNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newStrategy(s Searcher, p pacer.Pacer) *TieredStrategy {
	return &TieredStrategy{
		Searcher: s,
		Pacer:    p,
		TopN:     3,
		DaysAgo:  3,
		Now:      func() time.Time { return fixedNow },
	}
}

var aiAgents = models.Category{Name: "AI Agents", Queries: []string{"first", "second"}}

func testCtx() context.Context {
	return logging.WithLogger(context.Background(), logging.Discard())
}

func TestTieredStrategy_ShortCircuit(t *testing.T) {
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{
		QualifierPushed: {r("A", 500), r("B", 900), r("C", 200)},
	}}
	p := &pacer.Counting{}

	got := newStrategy(f, p).Search(testCtx(), aiAgents)

	sameNames(t, got, "B", "A", "C")
	if n := f.calls(QualifierUpdated) + f.calls(QualifierNone); n != 0 {
		t.Errorf("later tiers ran %d queries, want 0", n)
	}
	if f.calls(QualifierPushed) != 2 {
		t.Errorf("pushed tier ran %d queries, want one per expression", f.calls(QualifierPushed))
	}
	if p.Calls != 2 {
		t.Errorf("pacer waited %d times, want 2", p.Calls)
	}
}

func TestTieredStrategy_Accumulates(t *testing.T) {
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{
		QualifierPushed:  {r("A", 500)},
		QualifierUpdated: {r("D", 300), r("A", 500)},
		QualifierNone:    {r("E", 100)},
	}}

	got := newStrategy(f, nil).Search(testCtx(), aiAgents)

	sameNames(t, got, "A", "D", "E")
	for _, q := range []Qualifier{QualifierPushed, QualifierUpdated, QualifierNone} {
		if f.calls(q) != 2 {
			t.Errorf("tier %q ran %d queries, want 2", q, f.calls(q))
		}
	}
}

func TestTieredStrategy_SecondTierFills(t *testing.T) {
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{
		QualifierPushed:  {r("A", 500)},
		QualifierUpdated: {r("D", 300), r("F", 1000)},
		QualifierNone:    {r("E", 100)},
	}}

	got := newStrategy(f, nil).Search(testCtx(), aiAgents)

	sameNames(t, got, "F", "A", "D")
	if f.calls(QualifierNone) != 0 {
		t.Errorf("fallback tier should not run once the list is full")
	}
}

func TestTieredStrategy_AccumulatorWinsDuplicates(t *testing.T) {
	early := r("A", 500)
	late := r("A", 9999)
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{
		QualifierPushed:  {early},
		QualifierUpdated: {late},
	}}

	got := newStrategy(f, nil).Search(testCtx(), aiAgents)
	if len(got) != 1 || got[0].Stars != 500 {
		t.Fatalf("expected first-seen record, got %+v", got)
	}
}

func TestTieredStrategy_Empty(t *testing.T) {
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{}}
	got := newStrategy(f, nil).Search(testCtx(), aiAgents)
	if len(got) != 0 {
		t.Fatalf("expected no repos, got %v", repoNames(got))
	}
	if len(f.queries) != 6 {
		t.Errorf("expected all 3 tiers x 2 queries, got %d", len(f.queries))
	}
}

func TestTieredStrategy_QueryShape(t *testing.T) {
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{}}
	newStrategy(f, nil).Search(testCtx(), aiAgents)

	want := []struct {
		qual    Qualifier
		perPage int
	}{
		{QualifierPushed, 10}, {QualifierPushed, 10},
		{QualifierUpdated, 10}, {QualifierUpdated, 10},
		{QualifierNone, 15}, {QualifierNone, 15},
	}
	for i, w := range want {
		q := f.queries[i]
		if q.Qualifier != w.qual || q.PerPage != w.perPage {
			t.Errorf("query %d = %+v, want qualifier %q per_page %d", i, q, w.qual, w.perPage)
		}
		if q.Since != "2026-10-16" {
			t.Errorf("query %d since = %q", i, q.Since)
		}
	}
}

func TestTieredStrategy_CancelledContext(t *testing.T) {
	f := &fakeSearcher{byQualifier: map[Qualifier][]models.Repo{
		QualifierPushed: {r("A", 1)},
	}}
	ctx, cancel := context.WithCancel(testCtx())
	cancel()

	got := newStrategy(f, pacer.Nop{}).Search(ctx, aiAgents)
	if len(got) != 0 || len(f.queries) != 0 {
		t.Fatalf("cancelled search should not query, got %d queries", len(f.queries))
	}
}
