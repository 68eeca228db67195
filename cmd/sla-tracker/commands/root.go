package commands

import (
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sla-tracker/internal/config"
	"sla-tracker/internal/logging"
	"sla-tracker/internal/tracker"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	logs    io.Closer

	trackerClient tracker.Client
)

var rootCmd = &cobra.Command{
	Use:   "sla-tracker",
	Short: "SLA Tracker computes recruitment SLA compliance dashboards",
	Long: `Loads SLA request records from the SLA Tracker API or a local snapshot, filters them
and computes compliance KPIs and reports. Without a subcommand it runs as an MCP server over stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logs = logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		trackerClient = tracker.NewClient(cfg.Tracker)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("SLA Tracker starting")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			logs.Close()
		}
	},
	RunE: runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
