package index

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// fakeBackend answers with results keyed by query text.
type fakeBackend struct {
	mu      sync.Mutex
	results map[string]*RawResult
	err     error
	native  bool
	queries []Query
}

func (f *fakeBackend) Query(ctx context.Context, q Query) (*RawResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[q.Text]; ok {
		return r, nil
	}
	return &RawResult{}, nil
}

func (f *fakeBackend) RelaxesNatively() bool { return f.native }

func TestUnconfiguredDegradesToEmpty(t *testing.T) {
	c := NewClient(nil)
	require.False(t, c.Configured())
	ctx := context.Background()

	results := []*models.SearchResult{
		c.KeywordSearch(ctx, []string{"writing"}, 0, 20),
		c.NLPSearch(ctx, models.ProcessedQuery{SearchTerms: "writing"}, 0, 20),
		c.DirectSearch(ctx, "writing", 2, 10),
	}
	for _, r := range results {
		require.NotNil(t, r)
		assert.NotNil(t, r.Hits)
		assert.Empty(t, r.Hits)
		assert.Zero(t, r.Total)
		assert.Zero(t, r.Pages)
		assert.GreaterOrEqual(t, r.ProcessingTimeMS, int64(0))
	}
	assert.Equal(t, 2, results[2].Page)
	assert.Equal(t, 10, results[2].PerPage)
}

func TestBackendErrorDegradesToEmpty(t *testing.T) {
	c := NewClient(&fakeBackend{err: errors.New("connection refused")})
	r := c.DirectSearch(context.Background(), "x", 0, 20)
	assert.Empty(t, r.Hits)
	assert.Zero(t, r.Total)
}

func TestResultShape(t *testing.T) {
	fb := &fakeBackend{results: map[string]*RawResult{
		"notion": {
			Hits:           []map[string]any{{"id": "1", "name": "Notion AI", "secret": "x"}},
			Total:          45,
			ProcessingTime: 7 * time.Millisecond,
		},
	}}
	c := NewClient(fb)
	r := c.DirectSearch(context.Background(), "notion", 1, 20)

	require.Len(t, r.Hits, 1)
	assert.Equal(t, "Notion AI", r.Hits[0].Name)
	assert.Equal(t, 45, r.Total)
	assert.Equal(t, 3, r.Pages)
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, int64(7), r.ProcessingTimeMS)
}

func TestNLPSearchRelaxesTrailingTerms(t *testing.T) {
	fb := &fakeBackend{results: map[string]*RawResult{
		"free writing": {Hits: []map[string]any{{"id": "9"}}, Total: 1},
	}}
	c := NewClient(fb)
	r := c.NLPSearch(context.Background(), models.ProcessedQuery{
		SearchTerms:         "free writing blog posts",
		CandidateCategories: []string{"writing"},
	}, 0, 20)

	assert.Equal(t, 1, r.Total)
	require.Len(t, fb.queries, 3)
	assert.Equal(t, "free writing blog posts", fb.queries[0].Text)
	assert.Equal(t, "free writing blog", fb.queries[1].Text)
	assert.Equal(t, "free writing", fb.queries[2].Text)
	assert.Equal(t, []string{"writing"}, fb.queries[2].Categories, "facet filters are kept while relaxing")
}

func TestNLPSearchMovesPricingWordsToFacet(t *testing.T) {
	fb := &fakeBackend{}
	c := NewClient(fb)
	c.NLPSearch(context.Background(), models.ProcessedQuery{
		SearchTerms:    "free open source blog posts",
		PricingFilters: []string{"free", "open-source"},
	}, 0, 20)

	require.NotEmpty(t, fb.queries)
	assert.Equal(t, "blog posts", fb.queries[0].Text)
	assert.Equal(t, []string{"free", "open-source"}, fb.queries[0].Pricing)
}

func TestNLPSearchFallsBackToFacetsOnly(t *testing.T) {
	fb := &fakeBackend{results: map[string]*RawResult{
		"": {Hits: []map[string]any{{"id": "7"}}, Total: 1},
	}}
	c := NewClient(fb)
	r := c.NLPSearch(context.Background(), models.ProcessedQuery{
		SearchTerms:         "unmatched words",
		CandidateCategories: []string{"writing"},
	}, 0, 20)

	assert.Equal(t, 1, r.Total)
	require.Len(t, fb.queries, 3)
	assert.Equal(t, "unmatched", fb.queries[1].Text)
	assert.Empty(t, fb.queries[2].Text)
	assert.Equal(t, []string{"writing"}, fb.queries[2].Categories)
}

func TestNLPSearchWithoutFacetsNeverListsEverything(t *testing.T) {
	fb := &fakeBackend{results: map[string]*RawResult{
		"": {Hits: []map[string]any{{"id": "7"}}, Total: 1},
	}}
	c := NewClient(fb)
	r := c.NLPSearch(context.Background(), models.ProcessedQuery{SearchTerms: "unmatched words"}, 0, 20)

	assert.Zero(t, r.Total)
	for _, q := range fb.queries {
		assert.NotEmpty(t, q.Text)
	}
}

func TestNLPSearchDelegatesRelaxation(t *testing.T) {
	fb := &fakeBackend{native: true}
	c := NewClient(fb)
	r := c.NLPSearch(context.Background(), models.ProcessedQuery{SearchTerms: "free writing blog"}, 0, 20)

	assert.Zero(t, r.Total)
	require.Len(t, fb.queries, 1)
	assert.True(t, fb.queries[0].RemoveWordsIfNoResults)
	assert.True(t, fb.queries[0].TypoTolerance)
}

func TestKeywordSearchDoesNotRelax(t *testing.T) {
	fb := &fakeBackend{}
	c := NewClient(fb)
	c.KeywordSearch(context.Background(), []string{"a", "b"}, 0, 20)
	assert.Len(t, fb.queries, 1)
	assert.Equal(t, ModeKeyword, fb.queries[0].Mode)
}

func TestTimeoutApplied(t *testing.T) {
	slow := backendFunc(func(ctx context.Context, q Query) (*RawResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := NewClient(slow, WithTimeout(10*time.Millisecond))

	start := time.Now()
	r := c.DirectSearch(context.Background(), "x", 0, 20)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, r.Total)
}

type backendFunc func(ctx context.Context, q Query) (*RawResult, error)

func (f backendFunc) Query(ctx context.Context, q Query) (*RawResult, error) { return f(ctx, q) }
func (f backendFunc) RelaxesNatively() bool { return false }
