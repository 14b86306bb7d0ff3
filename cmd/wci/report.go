package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/wachat-insights/internal/archive"
	"github.com/Zuo-Peng/wachat-insights/internal/config"
	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/render"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
)

func reportCmd() *cobra.Command {
	var sender string
	var asJSON bool
	var top, bins int

	cmd := &cobra.Command{
		Use:   "report <chatKey|export.zip>",
		Short: "Chart a chat: activity by hour, weekday and date, senders, words, lengths",
		Long: `Builds the report of an indexed chat, or of an export archive given by path
without indexing it. --json prints the report as JSON instead of text charts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, msgs, err := loadChat(cfg, args[0])
			if err != nil {
				return err
			}

			req := reportRequest(cfg)
			req.Sender = sender
			req.TopN = top
			req.Bins = bins
			r, err := report.Build(msgs, req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			width := 80
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			fmt.Println(render.ReportHeadline(name, r))
			fmt.Print(render.RenderReport(r, width))
			return nil
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "Sender whose top words are charted (default: first sender)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().IntVar(&top, "top", report.DefaultTopN, "Number of top words and busiest days")
	cmd.Flags().IntVar(&bins, "bins", report.DefaultBins, "Buckets in the message length histogram")

	return cmd
}

// loadChat reads messages from an export archive when arg names an existing
// .zip file, otherwise from the index by chat key.
func loadChat(c *config.Config, arg string) (string, []parse.Message, error) {
	if strings.EqualFold(filepath.Ext(arg), ".zip") {
		if _, err := os.Stat(arg); err == nil {
			entry, err := archive.ExtractFile(arg)
			if err != nil {
				return "", nil, fmt.Errorf("extract %s: %w", arg, err)
			}
			msgs, err := parse.ParseWithOptions(entry.Text, parseOptions(c))
			if err != nil {
				return "", nil, fmt.Errorf("parse %s: %w", arg, err)
			}
			return index.ChatName(entry.Name, arg), msgs, nil
		}
	}

	db, err := index.OpenDB(c.DBPath)
	if err != nil {
		return "", nil, err
	}
	defer db.Close()

	chat, err := db.GetChat(arg)
	if err != nil {
		return "", nil, err
	}
	if chat == nil {
		return "", nil, fmt.Errorf("chat not found: %s (run 'wci list' for keys)", arg)
	}
	msgs, err := db.GetMessages(arg)
	if err != nil {
		return "", nil, err
	}
	return chat.Name, msgs, nil
}
