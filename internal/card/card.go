// Package card renders reports as Feishu/Lark interactive cards.
//
// All functions are pure: they take ranked sections and options and return
// the card value that the notify package posts to the webhook.
package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

// Card is the "card" object of an interactive message.
type Card struct {
	Config   Config    `json:"config"`
	Header   Header    `json:"header"`
	Elements []Element `json:"elements"`
}

type Config struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type Header struct {
	Template string `json:"template"`
	Title    Text   `json:"title"`
}

type Text struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// Element is a card block: "div" carries Text, "note" carries Elements,
// "hr" carries nothing.
type Element struct {
	Tag      string `json:"tag"`
	Text     *Text  `json:"text,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Header colors.
const (
	TemplateBlue   = "blue"
	TemplatePurple = "purple"
	TemplateGrey   = "grey"
)

const (
	maxDescription = 80
	noDescription  = "No description"
	noLanguage     = "Unknown"
	footer         = "Automated Intelligence • GitHub Monitor"
)

// Options carry the run parameters echoed in the card text.
type Options struct {
	TopN    int
	DaysAgo int
	// Keyword is appended to the intro block so the message passes a bot's
	// keyword security check. Empty omits the line.
	Keyword string
}

// Kind selects the card layout for a run with content.
type Kind int

const (
	KindReport Kind = iota
	KindWeekly
)

// Build picks the card for a finished run: the no-update notice when no
// section has repos, otherwise the layout for kind.
func Build(kind Kind, sections []models.Section, checkedAt time.Time, opts Options) Card {
	if !models.HasContent(sections) {
		return NoUpdate(checkedAt, opts)
	}
	if kind == KindWeekly {
		return Weekly(sections, opts)
	}
	return Report(sections, opts)
}

// Report renders the standard trending report.
func Report(sections []models.Section, opts Options) Card {
	elements := []Element{
		markdown(opts.withKeyword(fmt.Sprintf("📅 **Window**: last %d days (Top %d/Category)", opts.DaysAgo, opts.TopN))),
		divider(),
	}
	for _, s := range sections {
		elements = append(elements, markdown("### 📂 "+s.Category))
		for i, r := range s.Repos {
			elements = append(elements, markdown(fmt.Sprintf("%s **[%s](%s)**\n%s\n%s",
				rankMarker(i), r.Name, r.URL, statsLine(r), Description(r.Description))))
		}
		elements = append(elements, divider())
	}
	elements = append(elements, note(footer))

	return newCard(TemplateBlue, "🚀 GitHub Niche Intelligence", elements)
}

// Weekly renders the weekly digest: repos ranked by recent stars, each
// category followed by its summary.
func Weekly(sections []models.Section, opts Options) Card {
	elements := []Element{
		markdown(opts.withKeyword(fmt.Sprintf("📅 Weekly: ranked by new stars in the last %d days (Top %d/Category)", opts.DaysAgo, opts.TopN))),
		divider(),
	}
	for _, s := range sections {
		elements = append(elements, markdown("### 📂 "+s.Category))
		for _, r := range s.Repos {
			elements = append(elements, markdown(fmt.Sprintf("⭐+%d • [%s](%s)\n%s\n%s",
				r.RecentStars, r.Name, r.URL, statsLine(r), Description(r.Description))))
		}
		if s.Summary != "" {
			elements = append(elements, markdown("🧠 AI analysis: "+s.Summary))
		}
		elements = append(elements, divider())
	}
	elements = append(elements, note(footer))

	return newCard(TemplatePurple, "📈 GitHub Weekly Digest (with AI analysis)", elements)
}

// NoUpdate renders the notice sent when no category produced any repo.
func NoUpdate(checkedAt time.Time, opts Options) Card {
	text := fmt.Sprintf("📅 **Checked at**: %s\n⚠️ No qualifying trending projects in the last %d days.",
		checkedAt.Format("2006-01-02 15:04:05"), opts.DaysAgo)
	return newCard(TemplateGrey, "GitHub Monitor - No Trending Updates", []Element{
		markdown(opts.withKeyword(text)),
		note(footer),
	})
}

// Description flattens newlines and cuts d to 80 characters plus "...".
// A missing or empty description renders a placeholder.
func Description(d *string) string {
	if d == nil || *d == "" {
		return noDescription
	}
	runes := []rune(*d)
	out := runes
	if len(runes) > maxDescription {
		out = runes[:maxDescription]
	}
	s := strings.ReplaceAll(string(out), "\n", " ")
	if len(runes) > maxDescription {
		s += "..."
	}
	return s
}

func rankMarker(i int) string {
	markers := []string{"🥇", "🥈", "🥉"}
	if i < len(markers) {
		return markers[i]
	}
	return "🔹"
}

func statsLine(r models.Repo) string {
	lang := noLanguage
	if r.Language != nil && *r.Language != "" {
		lang = *r.Language
	}
	return fmt.Sprintf("⭐ %d | 🗣 %s", r.Stars, lang)
}

func (o Options) withKeyword(s string) string {
	if o.Keyword == "" {
		return s
	}
	return s + "\n(Safe Keyword: " + o.Keyword + ")"
}

func newCard(template, title string, elements []Element) Card {
	return Card{
		Config:   Config{WideScreenMode: true},
		Header:   Header{Template: template, Title: Text{Tag: "plain_text", Content: title}},
		Elements: elements,
	}
}

func markdown(s string) Element {
	return Element{Tag: "div", Text: &Text{Tag: "lark_md", Content: s}}
}

func divider() Element { return Element{Tag: "hr"} }

func note(s string) Element {
	return Element{Tag: "note", Elements: []Text{{Tag: "plain_text", Content: s}}}
}
