package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/config"
	kwstore "github.com/taaft-ai/toolsearch/pkg/store/badger"
)

func newKeywordsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List known keywords by frequency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openKeywordStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := context.Background()
			top, err := store.Top(ctx, limit)
			if err != nil {
				return err
			}
			if len(top) == 0 {
				fmt.Println("No keywords recorded.")
				return nil
			}
			total, err := store.Count(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEYWORD\tCOUNT")
			for _, kc := range top {
				fmt.Fprintf(w, "%s\t%d\n", kc.Keyword, kc.Count)
			}
			w.Flush()
			fmt.Printf("\n%d of %d keywords\n", len(top), total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of keywords to show")
	return cmd
}

func openKeywordStore(cfg *config.Config) (*kwstore.KeywordStore, error) {
	store, err := kwstore.Open(cfg.Keywords.Path, cfg.Keywords.InMemory)
	if err != nil {
		return nil, fmt.Errorf("open keyword store: %w", err)
	}
	return store, nil
}
