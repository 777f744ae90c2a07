package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.eeprom/internal/auth"
)

var userDelCmd = &cobra.Command{
	Use:   "user-delete <username>",
	Args:  cobra.ExactArgs(1),
	Short: "Delete a server user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		fs, err := auth.NewFileStore(cfg.UserFile)
		if err != nil {
			return err
		}

		if err := fs.DeleteUser(username); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userDelCmd)
}
