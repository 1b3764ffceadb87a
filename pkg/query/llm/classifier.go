// Package llm classifies search questions with an OpenAI-compatible chat model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/taaft-ai/toolsearch/pkg/config"
	"github.com/taaft-ai/toolsearch/pkg/query"
)

const maxAttempts = 2

const systemPrompt = `You classify search questions for a catalog of AI tools.
Reply with a single JSON object and nothing else:
{
  "search_terms": "short keyword query for a full-text index",
  "categories": ["zero or more of: %s"],
  "pricing_filters": ["zero or more of: free, freemium, paid, subscription, enterprise, one-time, open-source"],
  "intent": "one sentence describing what the user is looking for"
}
Use empty lists when the question does not say.`

// ErrNoChoices is returned when the model produces no output.
var ErrNoChoices = errors.New("llm returned no choices")

// Classifier implements query.Classifier.
type Classifier struct {
	model      llms.Model
	categories []string
	logger     *slog.Logger
}

var _ query.Classifier = (*Classifier)(nil)

// New creates a Classifier talking to cfg.BaseURL. categories lists the
// taxonomy names the model may choose from.
func New(cfg config.LLMConfig, categories []string) (*Classifier, error) {
	token := cfg.APIKey
	if token == "" {
		// local OpenAI-compatible servers accept any token
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewWithModel(client, categories), nil
}

// NewWithModel wraps an existing model.
func NewWithModel(model llms.Model, categories []string) *Classifier {
	return &Classifier{
		model:      model,
		categories: categories,
		logger:     slog.Default().With("component", "llm-classifier"),
	}
}

type response struct {
	SearchTerms    string   `json:"search_terms"`
	Categories     []string `json:"categories"`
	PricingFilters []string `json:"pricing_filters"`
	Intent         string   `json:"intent"`
}

// Classify asks the model to structure question. Malformed JSON is retried
// once before giving up.
func (c *Classifier) Classify(ctx context.Context, question string) (*query.Classification, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(systemPrompt, strings.Join(c.categories, ", ")))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(question)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return nil, fmt.Errorf("generate classification: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrNoChoices
		}

		var r response
		if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Content)), &r); err != nil {
			lastErr = err
			c.logger.Debug("malformed classifier response", "attempt", attempt, "err", err)
			continue
		}
		return &query.Classification{
			SearchTerms:    strings.TrimSpace(r.SearchTerms),
			Categories:     r.Categories,
			PricingFilters: r.PricingFilters,
			Intent:         strings.TrimSpace(r.Intent),
		}, nil
	}
	return nil, fmt.Errorf("parse classification: %w", lastErr)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
