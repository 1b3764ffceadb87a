package keywords

import (
	"math"
	"sort"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Defaults for Extractor.
const (
	DefaultMaxKeywords  = 15
	DefaultMaxMessages  = 5
	DefaultRepeatFactor = 4
)

// DefaultWeights is the recency schedule applied to user messages, most
// recent first. Messages beyond the schedule reuse its last weight.
var DefaultWeights = []float64{1.5, 1.25, 1.0, 1.0, 1.0}

// Extractor turns a conversation into a ranked keyword list.
type Extractor struct {
	maxKeywords  int
	maxMessages  int
	repeatFactor float64
	weights      []float64
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxKeywords caps the number of keywords returned.
func WithMaxKeywords(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxKeywords = n
		}
	}
}

// WithMaxMessages sets how many trailing user messages are considered.
func WithMaxMessages(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxMessages = n
		}
	}
}

// WithRepeatFactor sets the multiplier turning a weight into a repeat count.
func WithRepeatFactor(f float64) ExtractorOption {
	return func(e *Extractor) {
		if f > 0 {
			e.repeatFactor = f
		}
	}
}

// WithWeights replaces the recency schedule.
func WithWeights(w []float64) ExtractorOption {
	return func(e *Extractor) {
		if len(w) > 0 {
			e.weights = append([]float64(nil), w...)
		}
	}
}

// NewExtractor creates an Extractor with the default recency schedule.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		maxKeywords:  DefaultMaxKeywords,
		maxMessages:  DefaultMaxMessages,
		repeatFactor: DefaultRepeatFactor,
		weights:      DefaultWeights,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxKeywords returns the configured cap.
func (e *Extractor) MaxKeywords() int {
	return e.maxKeywords
}

// Extract returns the distinct keywords of the user turns in messages,
// most relevant first. Each of the last maxMessages user turns contributes
// its tokens round(weight*repeatFactor) times, so recent turns dominate the
// frequency ranking. Ties keep first-seen order, most recent turn first.
// The result is never nil.
func (e *Extractor) Extract(messages []models.ChatMessage) []string {
	var turns []string
	for _, m := range messages {
		if m.Role == "user" {
			turns = append(turns, m.Content)
		}
	}
	if len(turns) == 0 {
		return []string{}
	}
	if len(turns) > e.maxMessages {
		turns = turns[len(turns)-e.maxMessages:]
	}

	counts := make(map[string]int)
	var order []string
	for age := 0; age < len(turns); age++ {
		text := turns[len(turns)-1-age]
		repeats := int(math.Round(e.weight(age) * e.repeatFactor))
		if repeats < 1 {
			repeats = 1
		}
		for _, tok := range Tokenize(text) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok] += repeats
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > e.maxKeywords {
		order = order[:e.maxKeywords]
	}
	return order
}

func (e *Extractor) weight(age int) float64 {
	if age < len(e.weights) {
		return e.weights[age]
	}
	return e.weights[len(e.weights)-1]
}
