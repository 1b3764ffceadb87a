package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taaft-ai/toolsearch/pkg/config"
	"github.com/taaft-ai/toolsearch/pkg/index"
	"github.com/taaft-ai/toolsearch/pkg/index/algolia"
	"github.com/taaft-ai/toolsearch/pkg/index/sqlite"
	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/query"
	"github.com/taaft-ai/toolsearch/pkg/query/llm"
	"github.com/taaft-ai/toolsearch/pkg/search"
	kwstore "github.com/taaft-ai/toolsearch/pkg/store/badger"
)

// app holds the search stack shared by the serve, search and mcp commands.
type app struct {
	cfg      *config.Config
	search   *search.Service
	local    *sqlite.Index
	keywords *kwstore.KeywordStore
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close", "error", err)
		}
	}
}

// openBackend builds the configured index backend. An empty backend name
// returns nil, leaving search endpoints unavailable.
func (a *app) openBackend() (index.Backend, error) {
	switch a.cfg.Index.Backend {
	case config.BackendSQLite:
		ix, err := sqlite.Open(a.cfg.Index.Path)
		if err != nil {
			return nil, err
		}
		a.local = ix
		a.closers = append(a.closers, ix.Close)
		return ix, nil
	case config.BackendAlgolia:
		return algolia.New(algolia.Config{
			AppID:     a.cfg.Index.AppID,
			APIKey:    a.cfg.Index.APIKey,
			IndexName: a.cfg.Index.IndexName,
			BaseURL:   a.cfg.Index.URL,
		}, &http.Client{Timeout: a.cfg.Index.Timeout})
	default:
		slog.Warn("no search index configured; search endpoints will answer 503")
		return nil, nil
	}
}

// newApp wires the index, keyword store, classifier and search service.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	backend, err := a.openBackend()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}
	client := index.NewClient(backend, index.WithTimeout(cfg.Index.Timeout))

	store, err := kwstore.Open(cfg.Keywords.Path, cfg.Keywords.InMemory)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open keyword store: %w", err)
	}
	a.keywords = store
	a.closers = append(a.closers, store.Close)

	expander := keywords.NewExpander(cfg.Keywords.MaxExpanded)
	extractor := keywords.NewExtractor(
		keywords.WithMaxKeywords(cfg.Keywords.MaxKeywords),
		keywords.WithMaxMessages(cfg.Keywords.MaxMessages),
		keywords.WithRepeatFactor(cfg.Keywords.RepeatFactor),
	)

	var procOpts []query.Option
	if cfg.LLM.Enabled {
		var names []string
		for _, c := range expander.Categories() {
			names = append(names, c.Name)
		}
		classifier, err := llm.New(cfg.LLM, names)
		if err != nil {
			a.Close()
			return nil, err
		}
		procOpts = append(procOpts, query.WithClassifier(classifier, cfg.LLM.Timeout))
	}

	a.search = search.New(client, query.NewProcessor(expander, procOpts...), extractor, expander,
		search.WithKnownKeywords(store),
		search.WithPagination(cfg.Search.DefaultPerPage, cfg.Search.MaxPerPage),
	)
	return a, nil
}
