package cli

import (
	"github.com/spf13/cobra"
)

var quit bool

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Leave the shell",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		quit = true
	},
}

func init() {
	rootCmd.AddCommand(exitCmd)
}
