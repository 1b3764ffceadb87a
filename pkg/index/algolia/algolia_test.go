package algolia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taaft-ai/toolsearch/pkg/index"
)

func TestQuery(t *testing.T) {
	var got queryRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/indexes/tools/query", r.URL.Path)
		assert.Equal(t, "APP", r.Header.Get("X-Algolia-Application-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Algolia-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":[{"objectID":"a1","name":"Jasper"}],"nbHits":31,"page":1,"processingTimeMS":4}`))
	}))
	defer upstream.Close()

	b, err := New(Config{AppID: "APP", APIKey: "secret", IndexName: "tools", BaseURL: upstream.URL}, nil)
	require.NoError(t, err)

	res, err := b.Query(context.Background(), index.Query{
		Mode:                   index.ModeNLP,
		Text:                   "free writing",
		Categories:             []string{"writing"},
		Pricing:                []string{"free", "freemium"},
		Page:                   1,
		PerPage:                10,
		TypoTolerance:          true,
		RemoveWordsIfNoResults: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 31, res.Total)
	assert.Equal(t, 4*time.Millisecond, res.ProcessingTime)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a1", res.Hits[0]["objectID"])

	assert.Equal(t, "free writing", got.Query)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 10, got.HitsPerPage)
	assert.True(t, got.TypoTolerance)
	assert.Equal(t, "lastWords", got.RemoveWordsIfNoResults)
	assert.Equal(t, [][]string{{"categories:writing"}, {"pricing:free", "pricing:freemium"}}, got.FacetFilters)
	assert.True(t, b.RelaxesNatively())
}

func TestBuildRequestModes(t *testing.T) {
	kw := buildRequest(index.Query{Mode: index.ModeKeyword, Keywords: []string{"seo", "ads"}, PerPage: 5})
	assert.Equal(t, "seo ads", kw.Query)
	assert.Equal(t, []string{"seo", "ads"}, kw.OptionalWords)
	assert.Empty(t, kw.FacetFilters)
	assert.Empty(t, kw.RemoveWordsIfNoResults)

	direct := buildRequest(index.Query{Mode: index.ModeDirect, Text: "notion"})
	assert.Equal(t, []string{"name", "description"}, direct.RestrictSearchableAttributes)
}

func TestQueryUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid Application-ID or API key"}`))
	}))
	defer upstream.Close()

	b, err := New(Config{AppID: "APP", APIKey: "bad", IndexName: "tools", BaseURL: upstream.URL}, nil)
	require.NoError(t, err)

	_, err = b.Query(context.Background(), index.Query{Mode: index.ModeDirect, Text: "x"})
	assert.ErrorContains(t, err, "403")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{AppID: "APP"}, nil)
	assert.Error(t, err)
}
