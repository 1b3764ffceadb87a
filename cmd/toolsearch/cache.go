package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

func newCacheCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the response cache of a running gateway",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats models.CacheStats
			if err := newAdminClient(addr).do(context.Background(), http.MethodGet, "/search/cache", &stats); err != nil {
				return err
			}
			printCacheStats(stats)
			return nil
		},
	}

	cmd.AddCommand(statsCmd)
	for _, action := range []string{"enable", "disable", "clear"} {
		cmd.AddCommand(newCacheActionCmd(action, &addr))
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "gateway address")
	return cmd
}

func newCacheActionCmd(action string, addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the response cache", action),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Cleared *int             `json:"cleared"`
				Cache   models.CacheStats `json:"cache"`
			}
			if err := newAdminClient(*addr).do(context.Background(), http.MethodPost, "/search/cache/"+action, &resp); err != nil {
				return err
			}
			if resp.Cleared != nil {
				fmt.Printf("Cleared %d entries.\n", *resp.Cleared)
			}
			printCacheStats(resp.Cache)
			return nil
		},
	}
}

func printCacheStats(s models.CacheStats) {
	fmt.Printf("Enabled:   %t\nEntries:   %d\nHits:      %d\nMisses:    %d\nEvictions: %d\n",
		s.Enabled, s.Entries, s.Hits, s.Misses, s.Evictions)
}
