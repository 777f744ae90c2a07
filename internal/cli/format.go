package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Args:  cobra.NoArgs,
	Short: "Erase every page and start an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		if err := db.Format(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Store formatted (%d pages)\n", db.Stats().Pages)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)
}
