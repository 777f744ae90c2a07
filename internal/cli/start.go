package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.eeprom/internal/auth"
	"go.eeprom/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the veeprom server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		users, err := auth.NewFileStore(cfg.UserFile)
		if err != nil {
			return err
		}

		srv := server.New(cfg, db, users, log)

		fmt.Fprintf(cmd.OutOrStdout(), "Server started on %s\n", cfg.Addr)
		return srv.Listen()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
