package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/wachat-insights/internal/config"
	"github.com/Zuo-Peng/wachat-insights/internal/logging"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
	"github.com/Zuo-Peng/wachat-insights/internal/stats"
)

var version = "dev"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:     "wci",
		Short:   "WhatsApp chat insights - index, search and chart exported chats",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return logging.Setup(cfg.LogLevel)
		},
	}

	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseOptions(c *config.Config) parse.Options {
	opts := parse.DefaultOptions()
	opts.JoinContinuations = c.JoinContinuations
	opts.LenientDates = c.LenientDates
	return opts
}

func reportRequest(c *config.Config) report.Request {
	return report.Request{StopWords: stats.StopWords(c.StopWords...)}
}
