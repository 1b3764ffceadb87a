package keywords

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taaft-ai/toolsearch/pkg/models"
)

func user(content string) models.ChatMessage {
	return models.ChatMessage{Role: "user", Content: content}
}

func TestExtractSingleMessage(t *testing.T) {
	e := NewExtractor()
	got := e.Extract([]models.ChatMessage{user("I need a free tool for writing blog posts")})

	assert.Equal(t, []string{"free", "writing", "blog", "posts"}, got)
	for _, stop := range []string{"i", "need", "a", "for", "tool"} {
		assert.NotContains(t, got, stop)
	}
}

func TestExtractIgnoresNonUserMessages(t *testing.T) {
	e := NewExtractor()
	got := e.Extract([]models.ChatMessage{
		{Role: "system", Content: "You are a helpful catalog assistant"},
		{Role: "assistant", Content: "Which category interests you?"},
	})
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, e.Extract(nil))
}

func TestExtractFavorsRecentTurns(t *testing.T) {
	e := NewExtractor()
	got := e.Extract([]models.ChatMessage{
		user("video editing"),
		{Role: "assistant", Content: "Sure, anything else?"},
		user("image generation"),
	})
	assert.Equal(t, []string{"image", "generation", "video", "editing"}, got)
}

func TestExtractRepeatedTermsRankFirst(t *testing.T) {
	e := NewExtractor()
	got := e.Extract([]models.ChatMessage{
		user("podcast transcription"),
		user("podcast editing"),
	})
	require.NotEmpty(t, got)
	assert.Equal(t, "podcast", got[0])
	assert.Equal(t, []string{"podcast", "editing", "transcription"}, got)
}

func TestExtractOnlyLastMessages(t *testing.T) {
	e := NewExtractor(WithMaxMessages(2))
	got := e.Extract([]models.ChatMessage{
		user("spreadsheet"),
		user("podcast"),
		user("avatar"),
	})
	assert.Equal(t, []string{"avatar", "podcast"}, got)
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor()
	msgs := []models.ChatMessage{
		user("compare logo makers and banner designers"),
		user("I want something for logo animation with free exports"),
		user("also banner resizing and logo vectorizing"),
	}
	first := e.Extract(msgs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Extract(msgs))
	}
}

func TestExtractCap(t *testing.T) {
	e := NewExtractor()
	var words []string
	for i := 0; i < 100; i++ {
		words = append(words, fmt.Sprintf("word%03d", i))
	}
	got := e.Extract([]models.ChatMessage{user(strings.Join(words, " "))})
	assert.Len(t, got, DefaultMaxKeywords)
	assert.Equal(t, "word000", got[0])

	small := NewExtractor(WithMaxKeywords(3))
	assert.Len(t, small.Extract([]models.ChatMessage{user(strings.Join(words, " "))}), 3)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"cafe", "text-to-speech", "gpt_4o"}, Tokenize("Café, TEXT-to-speech & gpt_4o!"))
	assert.Empty(t, Tokenize("a an to of --- __"))
	assert.True(t, IsStopword("tools"))
	assert.False(t, IsStopword("free"))
}

func TestSplitPricing(t *testing.T) {
	terms, pricing := SplitPricing("I need a FREE tool for writing blog posts")
	assert.Equal(t, []string{"writing", "blog", "posts"}, terms)
	assert.Equal(t, []string{"free"}, pricing)

	terms, pricing = SplitPricing("open source or one time purchase, premium gratis free")
	assert.Equal(t, []string{"purchase"}, terms)
	assert.Equal(t, []string{"open-source", "one-time", "paid", "free"}, pricing)

	terms, pricing = SplitPricing("podcast editing")
	assert.Equal(t, []string{"podcast", "editing"}, terms)
	assert.Nil(t, pricing)
}

func TestPricingType(t *testing.T) {
	for in, want := range map[string]string{
		"Premium":     "paid",
		"open source": "open-source",
		" Lifetime ":  "one-time",
	} {
		got, ok := PricingType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := PricingType("cheap")
	assert.False(t, ok)
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" Writing ", "writing", "", "Content   Creation"})
	assert.Equal(t, []string{"writing", "content creation"}, got)
}

func TestExpandWriting(t *testing.T) {
	x := NewExpander(0)
	got := x.Expand([]string{"writing"})
	assert.Equal(t, []string{"writing", "content creation", "text generation", "copywriting"}, got)
}

func TestExpandFromSynonym(t *testing.T) {
	x := NewExpander(0)
	got := x.Expand([]string{"copywriting"})
	assert.Equal(t, "copywriting", got[0])
	assert.Contains(t, got, "writing")
	assert.Contains(t, got, "content creation")
	assert.Contains(t, got, "text generation")
}

func TestExpandPlural(t *testing.T) {
	x := NewExpander(0)
	assert.Contains(t, x.Expand([]string{"videos"}), "video editing")
}

func TestExpandSuperset(t *testing.T) {
	x := NewExpander(5)
	inputs := [][]string{
		{"writing"},
		{"unknownterm"},
		{"image", "audio", "video", "code"},
		{"a1", "a2", "a3", "a4", "a5", "a6", "a7"},
	}
	for _, in := range inputs {
		got := x.Expand(in)
		for _, kw := range in {
			assert.Contains(t, got, kw)
		}
	}
}

func TestExpandCap(t *testing.T) {
	x := NewExpander(0)
	got := x.Expand([]string{"writing", "image", "audio", "video", "code", "marketing"})
	assert.Len(t, got, DefaultMaxExpanded)
	assert.Equal(t, "writing", got[0])
}

func TestExpandWithKnown(t *testing.T) {
	x := NewExpander(0)
	expanded, matches := x.ExpandWithKnown([]string{"writing"}, []string{"essay writing", "writing", "music"})

	for _, term := range []string{"writing", "content creation", "text generation", "copywriting", "essay writing"} {
		assert.Contains(t, expanded, term)
	}
	assert.NotContains(t, expanded, "music")
	require.NotEmpty(t, matches)

	sources := map[string]string{}
	for _, m := range matches {
		sources[m.Matched] = m.Source
	}
	assert.Equal(t, models.MatchSynonym, sources["copywriting"])
	assert.Equal(t, models.MatchExact, sources["writing"])
	assert.Equal(t, models.MatchSubstring, sources["essay writing"])
}

func TestMatchShortTermsSkipSubstring(t *testing.T) {
	x := NewExpander(0)
	assert.Empty(t, x.Match([]string{"ai"}, []string{"ai writing"}))
	assert.Len(t, x.Match([]string{"ai"}, []string{"ai"}), 1)
}

func TestCategoriesIn(t *testing.T) {
	x := NewExpander(0)
	assert.Equal(t, []string{"writing"}, x.CategoriesIn("I need a free tool for writing blog posts"))
	assert.Equal(t, []string{"audio", "marketing"}, x.CategoriesIn("Podcasts for social media"))
	assert.Empty(t, x.CategoriesIn("smart things"))
}

func TestCategories(t *testing.T) {
	cats := NewExpander(0).Categories()
	require.Len(t, cats, 12)
	assert.Equal(t, "analytics", cats[0].Name)
	for _, c := range cats {
		assert.GreaterOrEqual(t, len(c.Synonyms), 3)
		assert.LessOrEqual(t, len(c.Synonyms), 5)
	}
}
