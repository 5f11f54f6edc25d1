package github

import (
	"strings"
	"time"
)

// Qualifier is the date field a query filters on.
type Qualifier string

const (
	QualifierNone    Qualifier = ""
	QualifierPushed  Qualifier = "pushed"
	QualifierUpdated Qualifier = "updated"
)

const searchScope = "in:name,description,readme"

// Query is one repository search: an expression (keyword or topic
// qualifier), an optional date filter and a page size.
type Query struct {
	Expr      string
	Qualifier Qualifier
	Since     string
	PerPage   int
}

// String renders the search q parameter, e.g.
// `topic:ai-agents in:name,description,readme pushed:>2026-10-16`.
func (q Query) String() string {
	parts := []string{q.Expr, searchScope}
	if q.Qualifier != QualifierNone && q.Since != "" {
		parts = append(parts, string(q.Qualifier)+":>"+q.Since)
	}
	return strings.Join(parts, " ")
}

// DateDaysAgo formats the UTC calendar date days before now as YYYY-MM-DD.
func DateDaysAgo(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, -days).Format("2006-01-02")
}
