package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/catalog"
)

func newImportCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "import <catalog.yaml|catalog.json>",
		Short: "Load a tool catalog into the local index and keyword store",
		Args:  cobra.ExactArgs(1),
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
			if a.local == nil {
				return errors.New("import requires index.backend: sqlite")
			}

			tools, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			var opts []catalog.Option
			if workers > 0 {
				opts = append(opts, catalog.WithPoolSize(workers))
			}
			im, err := catalog.NewImporter(a.local, a.keywords, opts...)
			if err != nil {
				return err
			}
			defer im.Release()

			res, err := im.Import(context.Background(), tools)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d tools (%d failed, %d skipped), %d distinct keywords.\n",
				res.Imported, res.Failed, res.Skipped, res.Keywords)
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent writers (default NumCPU/2)")
	return cmd
}
