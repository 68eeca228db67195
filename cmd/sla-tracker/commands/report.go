package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sla-tracker/internal/report"
	"sla-tracker/internal/visuals"
)

var (
	reportFlags   viewFlags
	reportName    string
	reportColumns []string
	reportFormat  string
	reportOut     string
	reportOpen    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Assemble the SLA report for a filtered view",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(reportFormat))
		if format != "markdown" && format != "json" {
			return fmt.Errorf("unsupported format %q: use markdown or json", reportFormat)
		}
		if reportOpen && reportOut == "" {
			return fmt.Errorf("--open requires --out")
		}

		session, err := reportFlags.openSession(cmd.Context())
		if err != nil {
			return err
		}
		rep := session.Report(report.Columns(reportColumns...), reportName)

		var data []byte
		if format == "json" {
			if data, err = json.MarshalIndent(rep, "", "  "); err != nil {
				return err
			}
		} else {
			data = []byte(visuals.RenderMarkdown(rep.Payload, cfg.EnableMermaidCharts))
		}

		if reportOut == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(reportOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Info().Str("path", reportOut).Str("id", rep.ID).Msg("Report written")

		if reportOpen {
			// Keep stdout clean for piping.
			browser.Stdout = os.Stderr
			return browser.OpenFile(reportOut)
		}
		return nil
	},
}

func init() {
	reportFlags.bind(reportCmd)
	f := reportCmd.Flags()
	f.StringVar(&reportName, "name", "", "report title")
	f.StringSliceVar(&reportColumns, "columns", nil, "table columns to include (default: all)")
	f.StringVar(&reportFormat, "format", "markdown", "output format: markdown or json")
	f.StringVarP(&reportOut, "out", "o", "", "write the report to a file instead of stdout")
	f.BoolVar(&reportOpen, "open", false, "open the written report with the default application")
	rootCmd.AddCommand(reportCmd)
}
