package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/open"
)

func openCmd() *cobra.Command {
	hit := -1
	cmd := &cobra.Command{
		Use:   "open <chatKey>",
		Short: "Extract a chat's transcript and open it in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return open.OpenChat(db, cfg.CacheDir, args[0], hit)
		},
	}
	cmd.Flags().IntVar(&hit, "hit", hit, "message id to put the cursor on")
	return cmd
}
