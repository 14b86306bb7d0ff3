package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan the exports folder and index every WhatsApp chat archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Scanning %s...\n", cfg.ExportsRoot)

			stats, err := index.IndexAll(cmd.Context(), db, cfg.ExportsRoot, parseOptions(cfg))
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}

// refreshIndex brings the index up to date before a read command; failures
// only warn.
func refreshIndex(ctx context.Context, db *index.DB) {
	if _, err := index.IndexAll(ctx, db, cfg.ExportsRoot, parseOptions(cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: index: %v\n", err)
	}
}
