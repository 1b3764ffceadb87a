package mcp

import (
	"fmt"
	"strings"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// formatHits formats search hits as a text table.
func formatHits(b *strings.Builder, res models.SearchResult) {
	if len(res.Hits) == 0 {
		b.WriteString("No tools found.\n")
		return
	}
	fmt.Fprintf(b, "%-28s %-14s %6s  %s\n", "Name", "Pricing", "Rating", "Description")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for _, h := range res.Hits {
		rating := "-"
		if h.Rating != nil {
			rating = fmt.Sprintf("%.1f", *h.Rating)
		}
		fmt.Fprintf(b, "%-28s %-14s %6s  %s\n",
			truncate(h.Name, 28), truncate(h.Pricing, 14), rating, truncate(h.Description, 60))
	}
	fmt.Fprintf(b, "\nPage %d of %d (%d tools, %d ms)\n", res.Page, res.Pages, res.Total, res.ProcessingTimeMS)
}

func formatNLPSearch(res *models.NLPSearchResponse) string {
	var b strings.Builder
	pq := res.ProcessedQuery
	fmt.Fprintf(&b, "Intent:     %s\n", pq.InterpretedIntent)
	fmt.Fprintf(&b, "Terms:      %s\n", pq.SearchTerms)
	fmt.Fprintf(&b, "Categories: %s\n", orNone(pq.CandidateCategories))
	fmt.Fprintf(&b, "Pricing:    %s\n\n", orNone(pq.PricingFilters))
	formatHits(&b, res.SearchResult)
	return b.String()
}

func formatKeywordSearch(res *models.KeywordSearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keywords: %s\n", orNone(res.OriginalKeywords))
	fmt.Fprintf(&b, "Expanded: %s\n\n", orNone(res.ExpandedKeywords))
	formatHits(&b, res.SearchResult)
	return b.String()
}

func formatSuggestions(suggestions []models.Suggestion) string {
	if len(suggestions) == 0 {
		return "No suggestions."
	}
	var b strings.Builder
	for _, s := range suggestions {
		fmt.Fprintf(&b, "%-30s (%s)\n", s.Text, s.Source)
	}
	return b.String()
}

// formatPerformance formats the telemetry report as text.
func formatPerformance(r models.PerformanceReport) string {
	return fmt.Sprintf("Search Performance (since %s)\n"+
		"  Requests:      %d (%d cached, %d uncached)\n"+
		"  Cache Hit:     %.1f%%\n"+
		"  Avg Response:  %.1f ms (cached %.1f ms, uncached %.1f ms)\n"+
		"  Slow:          %d (%.1f%%)\n"+
		"  Errors:        %d (%.1f%%)\n",
		r.Uptime,
		r.TotalRequests, r.CachedRequests, r.UncachedRequests,
		r.CacheHitRatio*100,
		r.AvgResponseTime*1000, r.AvgCachedResponseTime*1000, r.AvgUncachedResponseTime*1000,
		r.SlowRequests, r.SlowRequestRatio*100,
		r.ErrorRequests, r.ErrorRate*100)
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	state := "enabled"
	if !stats.Enabled {
		state = "disabled"
	}
	return fmt.Sprintf("Cache Statistics (%s)\n"+
		"  Entries:   %d\n"+
		"  Hits:      %d\n"+
		"  Misses:    %d\n"+
		"  Evictions: %d\n"+
		"  Hit Rate:  %.1f%%\n",
		state, stats.Entries, stats.Hits, stats.Misses, stats.Evictions, hitRate)
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
