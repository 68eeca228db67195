package commands

import (
	"github.com/spf13/cobra"
)

var optionFlags viewFlags

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the filter options present in the loaded records",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := optionFlags.openSession(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(session.Options())
	},
}

func init() {
	optionFlags.bind(optionsCmd)
	rootCmd.AddCommand(optionsCmd)
}
