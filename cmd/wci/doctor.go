package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check paths, the index and its full-text table",
		RunE: func(c *cobra.Command, args []string) error {
			return runDoctor(c.OutOrStdout())
		},
	}
}

func runDoctor(w io.Writer) error {
	section := func(title string) { fmt.Fprintf(w, "\n[%s]\n", title) }

	section("config")
	fmt.Fprintf(w, "  exports  %s\n", dirStatus(cfg.ExportsRoot))
	fmt.Fprintf(w, "  cache    %s\n", dirStatus(cfg.CacheDir))
	fmt.Fprintf(w, "  listen   %s\n", cfg.ListenAddr)
	fmt.Fprintf(w, "  upload   %s max\n", humanize.Bytes(uint64(cfg.MaxUploadBytes())))

	section("exports")
	files, err := scan.ScanRoot(cfg.ExportsRoot)
	if err != nil {
		fmt.Fprintf(w, "  scan failed: %v\n", err)
	} else {
		var size int64
		for _, f := range files {
			size += f.Size
		}
		fmt.Fprintf(w, "  %d archives, %s\n", len(files), humanize.Bytes(uint64(size)))
	}

	section("index")
	info, err := os.Stat(cfg.DBPath)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  %s missing, run 'wci index'\n", cfg.DBPath)
		return nil
	}
	if err == nil {
		fmt.Fprintf(w, "  %s (%s)\n", cfg.DBPath, humanize.Bytes(uint64(info.Size())))
	}

	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	chats, err := db.ChatCount()
	if err != nil {
		return fmt.Errorf("count chats: %w", err)
	}
	msgs, err := db.MessageCount()
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	fmt.Fprintf(w, "  %s chats, %s messages\n", humanize.Comma(int64(chats)), humanize.Comma(int64(msgs)))

	section("fts5")
	var rows int
	if err := db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&rows); err != nil {
		fmt.Fprintf(w, "  query failed: %v\n", err)
		return nil
	}
	if rows != msgs {
		fmt.Fprintf(w, "  out of sync: %d rows for %d messages, run 'wci index'\n", rows, msgs)
		return nil
	}
	fmt.Fprintf(w, "  ok, %s rows\n", humanize.Comma(int64(rows)))
	return nil
}

func dirStatus(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return path + " (missing)"
	case !info.IsDir():
		return path + " (not a directory)"
	}
	return path
}
