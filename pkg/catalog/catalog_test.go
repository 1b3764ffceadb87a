package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taaft-ai/toolsearch/pkg/index"
	"github.com/taaft-ai/toolsearch/pkg/index/sqlite"
	"github.com/taaft-ai/toolsearch/pkg/models"
	kwstore "github.com/taaft-ai/toolsearch/pkg/store/badger"
)

const yamlCatalog = `tools:
  - id: "1"
    name: Jasper
    description: AI copywriting assistant for marketing teams
    categories: [writing, marketing]
    keywords: [copywriting, blog posts]
    pricing: paid
    rating: 4.5
  - slug: midjourney
    name: Midjourney
    description: Image generation from text prompts
    categories: [image]
    pricing: subscription
  - id: "3"
    description: nameless entries are skipped
`

const jsonCatalog = `{"tools": [
  {"id": "7", "name": "Descript", "categories": ["audio", "video"], "pricing": "freemium"}
]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tools, err := Load(writeFile(t, "catalog.yaml", yamlCatalog))
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, "Jasper", tools[0].Name)
	assert.Equal(t, []string{"copywriting", "blog posts"}, tools[0].Keywords)
	require.NotNil(t, tools[0].Rating)
	assert.InDelta(t, 4.5, *tools[0].Rating, 1e-9)

	tools, err = Load(writeFile(t, "catalog.json", jsonCatalog))
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, []string{"audio", "video"}, tools[0].Categories)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.yaml", "tools: [\n"))
	assert.ErrorContains(t, err, "parse catalog")
}

func TestImportIntoIndexAndKeywordStore(t *testing.T) {
	ctx := context.Background()
	ix, err := sqlite.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	store, err := kwstore.Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tools, err := Load(writeFile(t, "catalog.yaml", yamlCatalog))
	require.NoError(t, err)

	im, err := NewImporter(ix, store, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(im.Release)

	res, err := im.Import(ctx, tools)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Failed)

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	kws, err := store.All(ctx)
	require.NoError(t, err)
	for _, kw := range []string{"writing", "marketing", "copywriting", "blog posts", "jasper", "image", "midjourney"} {
		assert.Contains(t, kws, kw)
	}
	assert.Equal(t, len(kws), res.Keywords)

	raw, err := ix.Query(ctx, index.Query{Mode: index.ModeDirect, Text: "midjourney", PerPage: 10})
	require.NoError(t, err)
	require.Len(t, raw.Hits, 1)
	assert.Equal(t, "midjourney", raw.Hits[0]["id"], "slug stands in for a missing id")
}

type flakyIndex struct {
	mu   sync.Mutex
	fail map[string]bool
	got  []string
}

func (f *flakyIndex) Upsert(ctx context.Context, rec models.ToolRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[rec.ID] {
		return errors.New("disk full")
	}
	f.got = append(f.got, rec.ID)
	return nil
}

type countingRecorder struct {
	added []string
	err   error
}

func (c *countingRecorder) Add(ctx context.Context, kws ...string) error {
	c.added = append(c.added, kws...)
	return c.err
}

func TestImportCountsFailures(t *testing.T) {
	idx := &flakyIndex{fail: map[string]bool{"b": true}}
	rec := &countingRecorder{}
	im, err := NewImporter(idx, rec)
	require.NoError(t, err)
	t.Cleanup(im.Release)

	res, err := im.Import(context.Background(), []models.ToolRecord{
		{ID: "a", Name: "Alpha Writer"},
		{ID: "b", Name: "Beta Painter"},
		{UniqueID: "c", Name: "Gamma"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.ElementsMatch(t, []string{"a", "c"}, idx.got)
	assert.NotContains(t, rec.added, "painter", "failed records contribute no keywords")
	assert.Contains(t, rec.added, "writer")
}

func TestImportKeywordStoreFailure(t *testing.T) {
	im, err := NewImporter(&flakyIndex{}, &countingRecorder{err: errors.New("closed")})
	require.NoError(t, err)
	t.Cleanup(im.Release)

	res, err := im.Import(context.Background(), []models.ToolRecord{{ID: "a", Name: "Alpha"}})
	assert.ErrorContains(t, err, "record keywords")
	assert.Equal(t, 1, res.Imported)
}

func TestImportCancelled(t *testing.T) {
	im, err := NewImporter(&flakyIndex{}, nil)
	require.NoError(t, err)
	t.Cleanup(im.Release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = im.Import(ctx, []models.ToolRecord{{ID: "a", Name: "Alpha"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewImporterRequiresIndex(t *testing.T) {
	_, err := NewImporter(nil, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)
}
