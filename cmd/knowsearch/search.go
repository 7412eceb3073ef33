package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

func searchCmd() *cobra.Command {
	var (
		topK     int
		mode     string
		alpha    float64
		category string
		level    string
		noCache  bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search against the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top-k") {
				topK = cfg.Search.TopK
			}
			if !cmd.Flags().Changed("mode") {
				mode = cfg.Search.Mode
			}
			if !cmd.Flags().Changed("alpha") {
				alpha = cfg.Search.Alpha
			}

			svc, _, closeFn, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			query := strings.Join(args, " ")
			ctx := cmd.Context()

			var resp *types.SearchResponse
			if category != "" || level != "" {
				resp, err = svc.AdvancedSearch(ctx, query, category, level, topK, types.Mode(mode), alpha, !noCache)
			} else {
				resp, err = svc.Search(ctx, query, topK, types.Mode(mode), alpha, !noCache)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			for i, r := range resp.Results {
				fmt.Printf("%2d. %-50s %.4f  [%s]\n", i+1, r.Title, r.CombinedScore, strings.Join(sourceNames(r.Sources), "+"))
			}
			fmt.Printf("mode=%s results=%d compute=%s\n", resp.Mode, len(resp.Results), resp.Timing.Compute)
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 5, "Maximum number of results")
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "Search mode: keyword, semantic, or hybrid")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.5, "Hybrid weight for the keyword backend (0.0-1.0)")
	cmd.Flags().StringVar(&category, "category", "", "Category substring filter")
	cmd.Flags().StringVar(&level, "level", "", "Exact difficulty level filter")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the query cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	return cmd
}

func sourceNames(sources []types.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}
