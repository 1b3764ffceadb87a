package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taaft-ai/toolsearch/pkg/cache"
	"github.com/taaft-ai/toolsearch/pkg/gateway"
	"github.com/taaft-ai/toolsearch/pkg/querylog"
	"github.com/taaft-ai/toolsearch/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the search gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := cache.New(cfg.Cache.MaxEntries)
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}
			if !cfg.Cache.Enabled {
				c.Disable()
			}

			stats := telemetry.New(
				telemetry.WithSlowThreshold(cfg.Telemetry.SlowThreshold),
				telemetry.WithReportEvery(cfg.Telemetry.ReportEvery),
			)

			var opts []gateway.Option
			if cfg.QueryLog.Enabled {
				ql, err := querylog.New(cfg.QueryLog)
				if err != nil {
					return fmt.Errorf("init query log: %w", err)
				}
				defer func() { _ = ql.Close() }()
				opts = append(opts, gateway.WithQueryLog(ql))
			}

			srv := gateway.New(cfg, a.search, c, stats, opts...)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("starting toolsearch gateway",
				"config", configPath, "index", cfg.Index.Backend, "cache", cfg.Cache.Enabled, "llm", cfg.LLM.Enabled)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(ctx) })
			g.Go(func() error { return c.Run(ctx, cfg.Cache.SweepInterval) })
			g.Go(func() error { return stats.Run(ctx, cfg.Telemetry.ReportInterval) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
