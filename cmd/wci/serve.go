package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/server"
	"github.com/Zuo-Peng/wachat-insights/internal/stats"
)

func serveCmd() *cobra.Command {
	var addr string
	var skipIndex bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload-and-analyze HTTP API",
		Long: `Starts an HTTP server:
  POST /api/analyze               multipart "file" (export zip), optional sender/top/bins
  GET  /api/chats                 indexed chats
  GET  /api/chats/{chatKey}/report optional sender/top/bins
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.ListenAddr
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !skipIndex {
				refreshIndex(ctx, db)
			}

			srv := server.New(db, server.Options{
				Parse:          parseOptions(cfg),
				StopWords:      stats.StopWords(cfg.StopWords...),
				MaxUploadBytes: cfg.MaxUploadBytes(),
			})
			return server.ListenAndServe(ctx, addr, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&skipIndex, "no-index", false, "Do not refresh the index before serving")

	return cmd
}
