package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var kpiFlags viewFlags

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Print the KPI snapshot for a filtered view as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := kpiFlags.openSession(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(session.State())
	},
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	kpiFlags.bind(kpisCmd)
	rootCmd.AddCommand(kpisCmd)
}
