package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taaft-ai/toolsearch/pkg/cache"
	"github.com/taaft-ai/toolsearch/pkg/mcp"
	"github.com/taaft-ai/toolsearch/pkg/telemetry"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve tool search as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
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
			stats := telemetry.New(telemetry.WithSlowThreshold(cfg.Telemetry.SlowThreshold))

			srv := mcp.New(a.search, version,
				mcp.WithCache(c, cfg.Cache.TTL.Default),
				mcp.WithTelemetry(stats),
			)

			// The session ends at stdin EOF; the sweeper stops with it.
			ctx, cancel := context.WithCancel(context.Background())
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return c.Run(gctx, cfg.Cache.SweepInterval) })
			g.Go(func() error {
				defer cancel()
				return srv.Run(gctx, os.Stdin, os.Stdout)
			})
			return g.Wait()
		},
	}
}
