package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kevinmichaelchen/trend-watch/internal/logging"
	"github.com/kevinmichaelchen/trend-watch/internal/models"
)

// Client writes one short paragraph per category. Without an API key it
// never calls out and returns a canned sentence instead.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	if apiKey == "" {
		return &Client{model: model}
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeBaseURL(baseURL)
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Enabled reports whether summaries come from the model.
func (c *Client) Enabled() bool { return c.client != nil }

const systemPrompt = `You are a senior technology analyst. Answer concisely and concretely.`

const userPrompt = `For product and engineering leaders, briefly summarize this week's trends in the "%s" space. The projects are: %s. Cover: 1) whether this is a technical leap or incremental iteration; 2) strengths, weaknesses and fitting use cases; 3) which ecosystems or adoption paths it may affect. Be concise; no filler.`

// Summarize returns a short paragraph about category's repos. It never fails:
// a missing key, a failed call or an empty answer all produce a fixed sentence.
func (c *Client) Summarize(ctx context.Context, category string, repos []models.Repo) string {
	if c.client == nil {
		return offlineSummary(category)
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, fmt.Sprintf("%s⭐+%d", r.FullName, r.RecentStars))
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPrompt, category, strings.Join(names, "; "))},
		},
		Temperature: 0.3,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("summary request failed", "category", category, "err", err)
		return fallbackSummary(category)
	}
	if len(resp.Choices) == 0 {
		return fallbackSummary(category)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return fallbackSummary(category)
	}
	return content
}

func offlineSummary(category string) string {
	return fmt.Sprintf("This week in %q: popular iterations driven by star growth and activity. Worth watching: deployable workflows, model API wrappers and toolchain integration.", category)
}

func fallbackSummary(category string) string {
	return fmt.Sprintf("This week in %q: popular iterations driven by star growth and activity.", category)
}

// normalizeBaseURL accepts either an API root ("https://api.openai.com/v1")
// or a full completions endpoint and returns the root.
func normalizeBaseURL(s string) string {
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, "/chat/completions")
	return strings.TrimSuffix(s, "/")
}
