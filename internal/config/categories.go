package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

// DefaultCategories is the built-in category table, in report order.
func DefaultCategories() []models.Category {
	return []models.Category{
		{Name: "AI Agents", Queries: []string{"topic:ai-agents", "topic:autonomous-agents", `"AI Agents"`, `"Autonomous Agents"`}},
		{Name: "No-code", Queries: []string{"topic:no-code", "topic:low-code", `"No-code"`, `"Low-code"`}},
		{Name: "Visual AI", Queries: []string{"topic:computer-vision", "topic:generative-ai", `"Visual AI"`, `"Computer Vision"`}},
		{Name: "Automation", Queries: []string{"topic:automation", "topic:workflow-automation", `"Automation"`}},
	}
}

type categoryFile struct {
	Category []models.Category `toml:"category"`
}

// LoadCategories reads a TOML category table:
//
//	[[category]]
//	name = "AI Agents"
//	queries = ["topic:ai-agents", '"AI Agents"']
//
// Order in the file is report order. Unknown keys, empty names, empty query
// lists and duplicate names are rejected.
func LoadCategories(path string) ([]models.Category, error) {
	var f categoryFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("reading categories from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("reading categories from %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if len(f.Category) == 0 {
		return nil, fmt.Errorf("reading categories from %s: no [[category]] entries", path)
	}

	seen := make(map[string]bool, len(f.Category))
	for i, c := range f.Category {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category #%d in %s has no name", i+1, path)
		}
		if seen[name] {
			return nil, fmt.Errorf("category %q in %s is defined twice", name, path)
		}
		seen[name] = true
		if len(c.Queries) == 0 {
			return nil, fmt.Errorf("category %q in %s has no queries", name, path)
		}
		f.Category[i].Name = name
	}
	return f.Category, nil
}
