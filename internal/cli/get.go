package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.eeprom/internal/eeprom"
	"go.eeprom/internal/engine"
)

var getCmd = &cobra.Command{
	Use:   "get <addr>",
	Short: "Print the value stored at <addr>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := engine.ParseWord(args[0])
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}

		val, err := db.Get(addr)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "0x%04X\n", val)
		return nil
	},
}

var getArrayCmd = &cobra.Command{
	Use:   "get-array <addr> [max]",
	Short: "Print the array stored at <addr> as hex",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := engine.ParseWord(args[0])
		if err != nil {
			return err
		}
		maxLen := eeprom.MaxArrayLen
		if len(args) == 2 {
			if maxLen, err = strconv.Atoi(args[1]); err != nil || maxLen < 1 {
				return fmt.Errorf("max must be a positive number")
			}
		}

		db, err := openDB()
		if err != nil {
			return err
		}

		data, err := db.GetArray(addr, maxLen)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(getArrayCmd)
}
