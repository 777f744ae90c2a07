package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.eeprom/internal/engine"
)

var eraseCountCmd = &cobra.Command{
	Use:   "erase-count",
	Short: "Print the erase counter of the active page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), db.EraseCounter())
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show store usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		st := db.Stats()
		fmt.Fprintf(out, "flash image:    %s\n", cfg.Flash.Image)
		fmt.Fprintf(out, "pages:          %d x %d bytes at 0x%08X\n", st.Pages, cfg.Flash.PageSize, cfg.EEPROM.Base)
		if !db.Ready() {
			fmt.Fprintln(out, "state:          needs format")
			return nil
		}
		fmt.Fprintf(out, "active page:    %d\n", st.ActivePage)
		fmt.Fprintf(out, "slots used:     %d/%d\n", st.UsedSlots, st.SlotsPerPage)
		fmt.Fprintf(out, "live variables: %d\n", st.LiveVariables)
		fmt.Fprintf(out, "erase counter:  %d\n", st.EraseCounter)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every page header and the live variables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		dump(cmd, db)
		return nil
	},
}

func dump(cmd *cobra.Command, db *engine.Database) {
	out := cmd.OutOrStdout()

	for _, p := range db.Pages() {
		fmt.Fprintf(out, "page %d  0x%08X-0x%08X  %-9s  erase=%d  used=%d\n",
			p.Index, p.Start, p.End+3, p.Header.Status, p.Header.EraseCount, p.UsedSlots)
	}

	vars := db.Variables()
	addrs := make([]uint16, 0, len(vars))
	for a := range vars {
		addrs = append(addrs, a)
	}
	slices.Sort(addrs)

	for _, a := range addrs {
		fmt.Fprintf(out, "0x%04X = 0x%04X\n", a, vars[a])
	}
}

func init() {
	rootCmd.AddCommand(eraseCountCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
}
