// Package algolia queries a hosted Algolia index over its REST API.
package algolia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/index"
)

// Config identifies the Algolia application and index.
type Config struct {
	AppID     string
	APIKey    string
	IndexName string
	// BaseURL overrides https://{AppID}-dsn.algolia.net.
	BaseURL string
}

// Backend implements index.Backend against Algolia.
type Backend struct {
	cfg    Config
	base   string
	client *http.Client
}

var _ index.Backend = (*Backend)(nil)

// New creates a Backend. A nil client selects a client with a 10s timeout.
func New(cfg Config, client *http.Client) (*Backend, error) {
	if cfg.AppID == "" || cfg.APIKey == "" || cfg.IndexName == "" {
		return nil, fmt.Errorf("algolia: app id, api key and index name are required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(cfg.AppID))
	}
	return &Backend{cfg: cfg, base: strings.TrimSuffix(base, "/"), client: client}, nil
}

// RelaxesNatively is true: removeWordsIfNoResults is handled server-side.
func (b *Backend) RelaxesNatively() bool {
	return true
}

type queryRequest struct {
	Query                        string     `json:"query"`
	Page                         int        `json:"page"`
	HitsPerPage                  int        `json:"hitsPerPage"`
	TypoTolerance                bool       `json:"typoTolerance"`
	RemoveWordsIfNoResults       string     `json:"removeWordsIfNoResults,omitempty"`
	FacetFilters                 [][]string `json:"facetFilters,omitempty"`
	OptionalWords                []string   `json:"optionalWords,omitempty"`
	RestrictSearchableAttributes []string   `json:"restrictSearchableAttributes,omitempty"`
}

type queryResponse struct {
	Hits             []map[string]any `json:"hits"`
	NbHits           int              `json:"nbHits"`
	ProcessingTimeMS int64            `json:"processingTimeMS"`
}

// Query runs q against the configured index.
func (b *Backend) Query(ctx context.Context, q index.Query) (*index.RawResult, error) {
	body, err := json.Marshal(buildRequest(q))
	if err != nil {
		return nil, fmt.Errorf("encode algolia query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/1/indexes/%s/query", b.base, url.PathEscape(b.cfg.IndexName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create algolia request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Algolia-Application-Id", b.cfg.AppID)
	req.Header.Set("X-Algolia-API-Key", b.cfg.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("algolia request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read algolia response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("algolia returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var qr queryResponse
	if err := json.Unmarshal(data, &qr); err != nil {
		return nil, fmt.Errorf("decode algolia response: %w", err)
	}
	if qr.Hits == nil {
		qr.Hits = []map[string]any{}
	}
	return &index.RawResult{
		Hits:           qr.Hits,
		Total:          qr.NbHits,
		ProcessingTime: time.Duration(qr.ProcessingTimeMS) * time.Millisecond,
	}, nil
}

func buildRequest(q index.Query) queryRequest {
	req := queryRequest{
		Page:          q.Page,
		HitsPerPage:   q.PerPage,
		TypoTolerance: q.TypoTolerance,
	}
	switch q.Mode {
	case index.ModeKeyword:
		// every keyword is optional, so a record matching any of them is a hit
		req.Query = strings.Join(q.Keywords, " ")
		req.OptionalWords = q.Keywords
	case index.ModeDirect:
		req.Query = q.Text
		req.RestrictSearchableAttributes = []string{"name", "description"}
	default:
		req.Query = q.Text
	}
	if q.RemoveWordsIfNoResults {
		req.RemoveWordsIfNoResults = "lastWords"
	}
	if f := facet("categories", q.Categories); f != nil {
		req.FacetFilters = append(req.FacetFilters, f)
	}
	if f := facet("pricing", q.Pricing); f != nil {
		req.FacetFilters = append(req.FacetFilters, f)
	}
	return req
}

// facet returns an OR group of attribute:value filters.
func facet(attr string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, attr+":"+v)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
