package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.eeprom/internal/engine"
	"go.eeprom/internal/flash"
)

var (
	limitFlag int
	imageFlag string
)

// replay rebuilds the flash contents from a journal, optionally cut short,
// and shows what a store would recover from it.
var replayCmd = &cobra.Command{
	Use:   "replay <journal>",
	Short: "Replay a flash journal and show the recovered store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var dev flash.Device
		if imageFlag != "" {
			img, err := flash.OpenFile(imageFlag, cfg.Geometry())
			if err != nil {
				return err
			}
			defer img.Close()
			dev = img
		} else {
			mem, err := flash.NewMemory(cfg.Geometry())
			if err != nil {
				return err
			}
			dev = mem
		}

		n, err := flash.Replay(f, dev, limitFlag)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "replayed %d operations\n", n)

		replayed, err := engine.OpenDevice(dev, cfg.EEPROM.Base, cfg.EEPROM.Pages, false, log)
		if err != nil {
			return err
		}
		if !replayed.Ready() {
			fmt.Fprintln(out, "no usable store in replayed flash")
			return nil
		}
		dump(cmd, replayed)
		return nil
	},
}

func init() {
	replayCmd.Flags().IntVar(&limitFlag, "limit", -1, "stop after this many operations")
	replayCmd.Flags().StringVar(&imageFlag, "image", "", "replay into this flash image instead of memory; created erased if missing")
	rootCmd.AddCommand(replayCmd)
}
