package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/render"
)

func previewCmd() *cobra.Command {
	opts := render.Options{HitID: -1}

	cmd := &cobra.Command{
		Use:   "preview <chatKey>",
		Short: "Print the messages around a hit",
		Long: "Print a chat from the index. With --hit the output is limited to\n" +
			"--context messages either side of that message; --context -1 prints everything.",
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out, _, err := render.RenderConversation(db, args[0], opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.OutOrStdout(), out)
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.HitID, "hit", opts.HitID, "message id to mark")
	f.IntVar(&opts.Context, "context", 10, "messages either side of the hit")
	f.IntVar(&opts.Width, "width", 0, "wrap width, 0 disables wrapping")
	f.StringVar(&opts.Query, "query", "", "terms to highlight")
	return cmd
}
