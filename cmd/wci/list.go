package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/search"
	"github.com/Zuo-Peng/wachat-insights/internal/tui"
)

func listCmd() *cobra.Command {
	var filter string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse indexed chats, most recently active first",
		Long: `Opens a TUI panel listing indexed chats with each chat's report in the preview.
Type to filter by chat name, tab to switch the sender whose words are charted.
When stdout is not a terminal, prints TSV: chatKey, lastDate, messages, name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			refreshIndex(cmd.Context(), db)

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.RunList(db, reportRequest(cfg))
			}

			chats, err := search.ListChats(db, filter, limit)
			if err != nil {
				return err
			}
			for _, c := range chats {
				fmt.Printf("%s\t%s\t%s\t%s\n",
					c.ChatKey,
					c.LastDate,
					humanize.Comma(int64(c.MessageCount)),
					strings.ReplaceAll(c.Name, "\t", " "),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only chats whose name contains this text")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max chats (0 = no limit)")

	return cmd
}
