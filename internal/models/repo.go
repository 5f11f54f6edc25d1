package models

// Repo is one repository returned by the search API. FullName ("owner/name")
// is its identity for deduplication.
type Repo struct {
	Owner       string  `json:"owner"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	URL         string  `json:"html_url"`
	Stars       int     `json:"stargazers_count"`
	Language    *string `json:"language"`
	RecentStars int     `json:"recent_stars,omitempty"`
}

// Category is a labeled, ordered set of search expressions, e.g. a topic
// qualifier ("topic:ai-agents") or a quoted phrase ("\"AI Agents\"").
type Category struct {
	Name    string   `json:"name" toml:"name"`
	Queries []string `json:"queries" toml:"queries"`
}

// Section is one category's final ranked list inside a report.
type Section struct {
	Category string
	Repos    []Repo
	Summary  string
}

// HasContent reports whether any section carries at least one repo.
func HasContent(sections []Section) bool {
	for _, s := range sections {
		if len(s.Repos) > 0 {
			return true
		}
	}
	return false
}
