package commands

import (
	"github.com/spf13/cobra"
)

var (
	trendFlags  viewFlags
	trendBucket string
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print compliance per day, week or month for a filtered view",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := trendFlags.openSession(cmd.Context())
		if err != nil {
			return err
		}
		points, err := session.Trend(trendBucket)
		if err != nil {
			return err
		}
		return writeJSON(points)
	},
}

func init() {
	trendFlags.bind(trendCmd)
	trendCmd.Flags().StringVar(&trendBucket, "bucket", "month", "bucket size: day, week or month")
	rootCmd.AddCommand(trendCmd)
}
