package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/search"
	"github.com/Zuo-Peng/wachat-insights/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var chat, sender, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed chat messages",
		Long: `Search indexed messages using FTS5. Output is TSV for fzf integration:
  chatKey, msgId, date, chat, sender, snippet

Recommended shell function (add to .zshrc):
  wcif() {
    wci search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'wci preview {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150 \
      --bind 'enter:execute(wci open {1} --hit {2})'
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := search.Options{
				Chat:   chat,
				Sender: sender,
				Since:  since,
				Limit:  limit,
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			// Auto-update index before searching
			refreshIndex(cmd.Context(), db)

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields (chatKey, msgID) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s%s%s\t%s%s%s\t%s\n",
					r.ChatKey,
					r.MsgID,
					sColorDim, r.Date, sColorReset,
					sColorBlue, tsvField(r.ChatName), sColorReset,
					sColorGreen, tsvField(r.Sender), sColorReset,
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chat, "chat", "", "Only search this chat key")
	cmd.Flags().StringVar(&sender, "sender", "", "Only messages from this sender")
	cmd.Flags().StringVar(&since, "since", "", "Only messages on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
