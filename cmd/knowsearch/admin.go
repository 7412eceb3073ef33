package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

func addCmd() *cobra.Command {
	var (
		id       string
		title    string
		content  string
		category string
		level    string
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert or update knowledge entries",
		Long:  "Add a single entry via flags, or bulk-load newline-delimited JSON entries with --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, st, closeFn, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()

			if fromFile != "" {
				f, err := os.Open(fromFile)
				if err != nil {
					return err
				}
				defer f.Close()

				added := 0
				scanner := bufio.NewScanner(f)
				scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
				for scanner.Scan() {
					line := scanner.Bytes()
					if len(line) == 0 {
						continue
					}
					var entry types.KnowledgeEntry
					if err := json.Unmarshal(line, &entry); err != nil {
						return fmt.Errorf("line %d: %w", added+1, err)
					}
					if err := st.UpsertEntry(ctx, &entry); err != nil {
						return fmt.Errorf("entry %s: %w", entry.ID, err)
					}
					added++
				}
				if err := scanner.Err(); err != nil {
					return err
				}
				fmt.Printf("added %d entries\n", added)
				return nil
			}

			entry := &types.KnowledgeEntry{ID: id, Title: title, Content: content, Category: category, Level: level}
			if err := st.UpsertEntry(ctx, entry); err != nil {
				return err
			}
			fmt.Printf("added %s\n", entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Entry identifier")
	cmd.Flags().StringVar(&title, "title", "", "Entry title")
	cmd.Flags().StringVar(&content, "content", "", "Entry body text")
	cmd.Flags().StringVar(&category, "category", "", "Topic category")
	cmd.Flags().StringVar(&level, "level", "", "Difficulty level")
	cmd.Flags().StringVar(&fromFile, "file", "", "Newline-delimited JSON file of entries")
	return cmd
}

func warmupCmd() *cobra.Command {
	var (
		topK int
		mode string
	)

	cmd := &cobra.Command{
		Use:   "warmup <query>...",
		Short: "Pre-populate the query cache with common queries",
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

			svc, _, closeFn, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.WarmupCache(cmd.Context(), args, topK, types.Mode(mode))
			if err != nil {
				return err
			}
			fmt.Printf("warmed %d/%d queries in %s\n", result.WarmedCount, len(args), result.Duration)
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 5, "Result count cached per query")
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "Search mode used while warming")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store and cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, st, closeFn, err := openService(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := st.Count(cmd.Context())
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"entries": count,
				"caches":  svc.GetCacheStats(),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
