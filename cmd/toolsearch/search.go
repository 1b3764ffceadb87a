package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

func newSearchCmd() *cobra.Command {
	var (
		page       int
		perPage    int
		categories []string
		pricing    []string
		byKeywords bool
	)

	cmd := &cobra.Command{
		Use:   "search <question...>",
		Short: "Run a one-shot search against the configured index",
		Args:  cobra.MinimumNArgs(1),
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

			ctx := context.Background()
			if byKeywords {
				res, err := a.search.MatchedKeywordSearch(ctx, args, page, perPage)
				if err != nil {
					return err
				}
				fmt.Printf("Expanded: %s\n\n", strings.Join(res.ExpandedKeywords, ", "))
				printHits(os.Stdout, res.SearchResult)
				return nil
			}

			hints := map[string]any{}
			if len(categories) > 0 {
				hints["categories"] = categories
			}
			if len(pricing) > 0 {
				hints["pricing"] = pricing
			}
			res, err := a.search.NLPSearch(ctx, strings.Join(args, " "), hints, page, perPage)
			if err != nil {
				return err
			}
			pq := res.ProcessedQuery
			fmt.Printf("Intent:     %s\n", pq.InterpretedIntent)
			fmt.Printf("Categories: %s\n", strings.Join(pq.CandidateCategories, ", "))
			fmt.Printf("Pricing:    %s\n\n", strings.Join(pq.PricingFilters, ", "))
			printHits(os.Stdout, res.SearchResult)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "1-based result page")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page (default from config)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to categories")
	cmd.Flags().StringSliceVar(&pricing, "pricing", nil, "restrict to pricing types")
	cmd.Flags().BoolVarP(&byKeywords, "keywords", "k", false, "treat arguments as keywords and search with synonym expansion")
	return cmd
}

func printHits(out io.Writer, res models.SearchResult) {
	if len(res.Hits) == 0 {
		fmt.Fprintln(out, "No tools found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICING\tRATING\tCATEGORIES")
	for _, h := range res.Hits {
		rating := "-"
		if h.Rating != nil {
			rating = fmt.Sprintf("%.1f", *h.Rating)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", h.ID, h.Name, h.Pricing, rating, strings.Join(h.Categories, ","))
	}
	w.Flush()
	fmt.Fprintf(out, "\nPage %d of %d (%d tools, %d ms)\n", res.Page, res.Pages, res.Total, res.ProcessingTimeMS)
}
