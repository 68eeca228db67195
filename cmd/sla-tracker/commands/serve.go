package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sla-tracker/internal/mcp"
	"sla-tracker/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint stopped")
			}
		}()
	}

	err := mcp.NewServer(cfg, trackerClient).Start(ctx, Version)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
