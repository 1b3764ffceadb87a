// Package catalog loads tool catalogs and imports them into the local
// search index and keyword store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"gopkg.in/yaml.v3"

	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/models"
)

// ErrIndexRequired is returned when an Importer has no index to write to.
var ErrIndexRequired = errors.New("catalog: index is required")

// File is the on-disk catalog layout.
type File struct {
	Tools []models.ToolRecord `yaml:"tools"`
}

// Load reads a YAML or JSON catalog file.
func Load(path string) ([]models.ToolRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	// JSON documents are valid YAML.
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return f.Tools, nil
}

// Upserter stores tool records in a search index.
type Upserter interface {
	Upsert(ctx context.Context, rec models.ToolRecord) error
}

// KeywordRecorder counts keyword occurrences.
type KeywordRecorder interface {
	Add(ctx context.Context, keywords ...string) error
}

// Result summarizes an import.
type Result struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Keywords int `json:"keywords"`
}

// Importer writes catalog records concurrently.
type Importer struct {
	index    Upserter
	keywords KeywordRecorder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the number of concurrent writers.
func WithPoolSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = 1
		}
		if im.pool != nil {
			im.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		im.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger != nil {
			im.logger = logger
		}
		return nil
	}
}

// NewImporter creates an Importer. kw may be nil to skip keyword recording.
func NewImporter(idx Upserter, kw KeywordRecorder, opts ...Option) (*Importer, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	size := runtime.NumCPU() / 2
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	im := &Importer{
		index:    idx,
		keywords: kw,
		pool:     pool,
		logger:   slog.Default().With("component", "catalog"),
	}
	for _, opt := range opts {
		if err := opt(im); err != nil {
			im.Release()
			return nil, err
		}
	}
	return im, nil
}

// Release stops the worker pool.
func (im *Importer) Release() {
	if im.pool != nil {
		im.pool.Release()
	}
}

// Import upserts every usable record and records its keywords. Records
// without an identifier or a name are skipped; failed writes are counted
// and logged.
func (im *Importer) Import(ctx context.Context, tools []models.ToolRecord) (Result, error) {
	var (
		res      Result
		imported atomic.Int64
		failed   atomic.Int64
		wg       sync.WaitGroup
		mu       sync.Mutex
		seen     = make(map[string]struct{})
		kws      []string
	)

	for _, rec := range tools {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return im.result(res, &imported, &failed), err
		}
		rec, ok := prepare(rec)
		if !ok {
			res.Skipped++
			continue
		}

		wg.Add(1)
		err := im.pool.Submit(func() {
			defer wg.Done()
			if err := im.index.Upsert(ctx, rec); err != nil {
				failed.Add(1)
				im.logger.Warn("upsert tool", "id", rec.ID, "error", err)
				return
			}
			imported.Add(1)
			terms := toolKeywords(rec)
			mu.Lock()
			for _, t := range terms {
				seen[t] = struct{}{}
			}
			kws = append(kws, terms...)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return im.result(res, &imported, &failed), fmt.Errorf("submit import task: %w", err)
		}
	}
	wg.Wait()

	res = im.result(res, &imported, &failed)
	if im.keywords != nil && len(kws) > 0 {
		if err := im.keywords.Add(ctx, kws...); err != nil {
			return res, fmt.Errorf("record keywords: %w", err)
		}
		res.Keywords = len(seen)
	}
	im.logger.Info("catalog imported",
		"imported", res.Imported, "failed", res.Failed, "skipped", res.Skipped, "keywords", res.Keywords)
	return res, nil
}

func (im *Importer) result(res Result, imported, failed *atomic.Int64) Result {
	res.Imported = int(imported.Load())
	res.Failed = int(failed.Load())
	return res
}

// prepare fills the record ID from its unique id or slug.
func prepare(rec models.ToolRecord) (models.ToolRecord, bool) {
	rec.Name = strings.TrimSpace(rec.Name)
	for _, id := range []string{rec.ID, rec.UniqueID, rec.Slug} {
		if id = strings.TrimSpace(id); id != "" {
			rec.ID = id
			break
		}
	}
	return rec, rec.ID != "" && rec.Name != ""
}

// toolKeywords returns the normalized categories, explicit keywords and
// name tokens of rec.
func toolKeywords(rec models.ToolRecord) []string {
	terms := make([]string, 0, len(rec.Categories)+len(rec.Keywords)+2)
	terms = append(terms, rec.Categories...)
	terms = append(terms, rec.Keywords...)
	terms = append(terms, keywords.Tokenize(rec.Name)...)
	return keywords.NormalizeKeywords(terms)
}
