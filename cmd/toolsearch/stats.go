package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

func newStatsCmd() *cobra.Command {
	var (
		addr  string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request performance statistics from a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, path := http.MethodGet, "/search/stats"
			if reset {
				method, path = http.MethodPost, "/search/stats/reset"
			}
			var report models.PerformanceReport
			if err := newAdminClient(addr).do(context.Background(), method, path, &report); err != nil {
				return err
			}
			fmt.Print(formatPerformance(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "gateway address")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset counters and print the fresh snapshot")
	return cmd
}

func formatPerformance(r models.PerformanceReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requests:        %d (%d cached, %d uncached)\n", r.TotalRequests, r.CachedRequests, r.UncachedRequests)
	fmt.Fprintf(&b, "Slow:            %d (%.1f%%)\n", r.SlowRequests, r.SlowRequestRatio*100)
	fmt.Fprintf(&b, "Errors:          %d (%.1f%%)\n", r.ErrorRequests, r.ErrorRate*100)
	fmt.Fprintf(&b, "Cache hit ratio: %.1f%%\n", r.CacheHitRatio*100)
	fmt.Fprintf(&b, "Avg response:    %.2fms (cached %.2fms, uncached %.2fms)\n",
		r.AvgResponseTime, r.AvgCachedResponseTime, r.AvgUncachedResponseTime)
	fmt.Fprintf(&b, "Since reset:     %s\n", r.Uptime)
	return b.String()
}
