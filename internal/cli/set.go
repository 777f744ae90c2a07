package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.eeprom/internal/engine"
)

var setCmd = &cobra.Command{
	Use:   "set <addr> <value>",
	Short: "Store <value> at <addr>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := engine.ParseWord(args[0])
		if err != nil {
			return err
		}
		val, err := engine.ParseWord(args[1])
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}

		if err := db.Set(addr, val); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "0x%04X = 0x%04X\n", addr, val)
		return nil
	},
}

var setArrayCmd = &cobra.Command{
	Use:   "set-array <addr> <hexbytes>",
	Short: "Store a byte array at <addr>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := engine.ParseWord(args[0])
		if err != nil {
			return err
		}
		data, err := engine.ParseHex(args[1])
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}

		if err := db.SetArray(addr, data); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d bytes stored at 0x%04X\n", len(data), addr)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(setArrayCmd)
}
