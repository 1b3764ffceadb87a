package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/models"
	"github.com/taaft-ai/toolsearch/pkg/querylog"
)

func newQueryLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "querylog",
		Short: "Query and manage the search request log",
	}

	cmd.AddCommand(
		newQueryLogSearchCmd(),
		newQueryLogStatsCmd(),
		newQueryLogCleanupCmd(),
	)
	return cmd
}

func newQueryLogSearchCmd() *cobra.Command {
	var (
		path      string
		since     string
		requestID string
		hit       string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search logged requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openQueryLog(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.QueryLogOpts{
				Path:      path,
				RequestID: requestID,
				Limit:     limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}
			if hit != "" {
				b, err := strconv.ParseBool(hit)
				if err != nil {
					return fmt.Errorf("invalid --cache-hit value: %w", err)
				}
				opts.CacheHit = &b
			}

			entries, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatQueryLogEntries(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "filter by endpoint path")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&requestID, "request-id", "", "filter by request ID")
	cmd.Flags().StringVar(&hit, "cache-hit", "", "filter by cache outcome (true or false)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries to return")
	return cmd
}

func newQueryLogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show request counts by path and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openQueryLog(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatQueryLogStats(stats))
			return nil
		},
	}
}

func newQueryLogCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete entries older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openQueryLog(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d query log entries.\n", deleted)
			return nil
		},
	}
}

func openQueryLog(cmd *cobra.Command) (*querylog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.QueryLog.DBPath == "" {
		return nil, nil, errors.New("query_log.db_path is not set")
	}
	l, err := querylog.New(cfg.QueryLog)
	if err != nil {
		return nil, nil, fmt.Errorf("open query log: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

func formatQueryLogEntries(entries []models.QueryLogEntry) string {
	if len(entries) == 0 {
		return "No query log entries found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-38s %-6s %-40s %6s %5s %8s %-20s\n",
		"REQUEST ID", "METHOD", "PATH", "STATUS", "CACHE", "LATENCY", "TIME")
	b.WriteString(strings.Repeat("-", 131) + "\n")
	for _, e := range entries {
		cache := "miss"
		if e.CacheHit {
			cache = "hit"
		}
		fmt.Fprintf(&b, "%-38s %-6s %-40s %6d %5s %6dms %-20s\n",
			e.RequestID, e.Method, e.Path, e.StatusCode, cache,
			e.LatencyMs, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatQueryLogStats(stats []models.QueryLogStat) string {
	if len(stats) == 0 {
		return "No query log stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-40s %-12s %8s %8s %10s\n", "PATH", "DAY", "COUNT", "HITS", "AVG MS")
	b.WriteString(strings.Repeat("-", 82) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-40s %-12s %8d %8d %10.1f\n", s.Path, s.Day, s.Count, s.CacheHits, s.AvgLatencyMs)
	}
	return b.String()
}
