package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.eeprom/internal/eeprom"
	"go.eeprom/internal/engine"
)

var delCmd = &cobra.Command{
	Use:   "del <addr>",
	Args:  cobra.ExactArgs(1),
	Short: "Delete the variable at <addr>",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd, args[0], false)
	},
}

var delArrayCmd = &cobra.Command{
	Use:   "del-array <addr>",
	Args:  cobra.ExactArgs(1),
	Short: "Delete the array at <addr> and all of its elements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd, args[0], true)
	},
}

func runDelete(cmd *cobra.Command, arg string, array bool) error {
	addr, err := engine.ParseWord(arg)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}

	var deleted bool
	if array {
		deleted, err = db.DeleteArray(addr)
	} else {
		deleted, err = db.Delete(addr)
	}
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("0x%04X: %w", addr, eeprom.ErrNotFound)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "0x%04X deleted\n", addr)
	return nil
}

func init() {
	rootCmd.AddCommand(delCmd)
	rootCmd.AddCommand(delArrayCmd)
}
