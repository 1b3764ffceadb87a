package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taaft-ai/toolsearch/pkg/index"
	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/models"
	"github.com/taaft-ai/toolsearch/pkg/query"
)

func floatPtr(f float64) *float64 { return &f }

func seed(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	ctx := context.Background()
	tools := []models.ToolRecord{
		{ID: "1", Name: "BlogWriter", Description: "Write blog posts and articles", Categories: []string{"Writing"}, Pricing: "Free", Rating: floatPtr(4.2)},
		{ID: "2", Name: "CopyGenius", Description: "Marketing copywriting for ads", Categories: []string{"writing", "marketing"}, Pricing: "paid", Rating: floatPtr(4.8), Keywords: []string{"copywriting", "content creation"}},
		{ID: "3", Name: "PixelForge", Description: "Image generation from text prompts", Categories: []string{"image"}, Pricing: "freemium"},
		{ID: "4", Name: "Podcastify", Description: "Turn blog posts into podcast episodes", Categories: []string{"audio"}, Pricing: "free"},
	}
	for _, tool := range tools {
		require.NoError(t, ix.Upsert(ctx, tool))
	}
	return ix
}

func TestUpsertAndCount(t *testing.T) {
	ix := seed(t)
	ctx := context.Background()

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// replacing keeps the count and updates the text index
	require.NoError(t, ix.Upsert(ctx, models.ToolRecord{ID: "3", Name: "PixelForge", Description: "Vector illustration"}))
	n, err = ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	res, err := ix.Query(ctx, index.Query{Mode: index.ModeDirect, Text: "generation", PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	res, err = ix.Query(ctx, index.Query{Mode: index.ModeDirect, Text: "illustration", PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	assert.Error(t, ix.Upsert(ctx, models.ToolRecord{Name: "no id"}))
}

func TestKeywordQueryMatchesAny(t *testing.T) {
	ix := seed(t)
	res, err := ix.Query(context.Background(), index.Query{
		Mode:     index.ModeKeyword,
		Keywords: []string{"content creation", "podcast"},
		PerPage:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	ids := []string{}
	for _, h := range res.Hits {
		ids = append(ids, h["id"].(string))
	}
	assert.ElementsMatch(t, []string{"2", "4"}, ids)
}

func TestNLPQueryFacets(t *testing.T) {
	ix := seed(t)
	ctx := context.Background()

	res, err := ix.Query(ctx, index.Query{Mode: index.ModeNLP, Text: "blog posts", PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = ix.Query(ctx, index.Query{Mode: index.ModeNLP, Text: "blog posts", Categories: []string{"writing"}, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "1", res.Hits[0]["id"])

	res, err = ix.Query(ctx, index.Query{Mode: index.ModeNLP, Pricing: []string{"free"}, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}

func TestQueryPagination(t *testing.T) {
	ix := seed(t)
	ctx := context.Background()

	first, err := ix.Query(ctx, index.Query{Mode: index.ModeNLP, Page: 0, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, first.Total)
	assert.Len(t, first.Hits, 3)
	// unfiltered listings rank by rating
	assert.Equal(t, "2", first.Hits[0]["id"])

	second, err := ix.Query(ctx, index.Query{Mode: index.ModeNLP, Page: 1, PerPage: 3})
	require.NoError(t, err)
	assert.Len(t, second.Hits, 1)
}

func TestQueryWithoutTerms(t *testing.T) {
	ix := seed(t)
	res, err := ix.Query(context.Background(), index.Query{Mode: index.ModeKeyword, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	res, err = ix.Query(context.Background(), index.Query{Mode: index.ModeDirect, Text: "the and of", PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestDelete(t *testing.T) {
	ix := seed(t)
	ctx := context.Background()
	require.NoError(t, ix.Delete(ctx, "4"))

	res, err := ix.Query(ctx, index.Query{Mode: index.ModeKeyword, Keywords: []string{"podcast"}, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestMatchExpr(t *testing.T) {
	assert.Equal(t, `"writing" OR "content creation"`,
		matchExpr(index.Query{Mode: index.ModeKeyword, Keywords: []string{"Writing", " content creation "}}))
	assert.Equal(t, `"free"* AND "blog"*`,
		matchExpr(index.Query{Mode: index.ModeNLP, Text: "I need a free tool for blog"}))
	assert.Equal(t, `{name description} : ("podcast"*)`,
		matchExpr(index.Query{Mode: index.ModeDirect, Text: "podcast"}))
	assert.Equal(t, `"say ""hi"""`, quote(`say "hi"`))
}

func TestProcessedQuestionsFindFacetCompatibleTools(t *testing.T) {
	ix := seed(t)
	client := index.NewClient(ix)
	processor := query.NewProcessor(keywords.NewExpander(0))
	ctx := context.Background()

	cases := []struct {
		question string
		want     string
	}{
		{"I need a free tool for writing blog posts", "1"},
		{"free blog writer", "1"},
		{"blog writer for free", "1"},
		{"paid copywriting tool for marketing ads", "2"},
		{"freemium image generation", "3"},
	}
	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			pq := processor.Process(ctx, tc.question, nil)
			res := client.NLPSearch(ctx, pq, 0, 10)
			require.NotZero(t, res.Total)

			ids := []string{}
			for _, h := range res.Hits {
				ids = append(ids, h.ID)
			}
			assert.Contains(t, ids, tc.want)
		})
	}
}

func TestRelaxationKeepsPricingFacet(t *testing.T) {
	ix := seed(t)
	client := index.NewClient(ix)
	pq := query.NewProcessor(keywords.NewExpander(0)).Process(context.Background(), "free zzzunknown", nil)

	res := client.NLPSearch(context.Background(), pq, 0, 10)
	require.Equal(t, 2, res.Total)
	for _, h := range res.Hits {
		assert.Equal(t, "free", strings.ToLower(h.Pricing))
	}
}
