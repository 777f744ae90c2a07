package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.eeprom/internal/mirror"
)

var restoreFlag bool

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Persist the configured Modbus holding registers, or restore them with --restore",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mc := cfg.Mirror
		if mc.Endpoint == "" {
			return errors.New("mirror.endpoint is not configured")
		}

		db, err := openDB()
		if err != nil {
			return err
		}

		client, err := mirror.Dial(mirror.Config{
			Endpoint: mc.Endpoint,
			UnitID:   mc.UnitID,
			Timeout:  time.Duration(mc.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("connect %s: %w", mc.Endpoint, err)
		}
		defer client.Close()

		m := mirror.New(client, db, mirror.Block{
			Address:  mc.Address,
			Quantity: mc.Quantity,
			Base:     mc.Base,
		}, time.Duration(mc.IntervalMs)*time.Millisecond, log)

		out := cmd.OutOrStdout()

		if restoreFlag {
			n, err := m.Restore()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d registers restored to %s\n", n, mc.Endpoint)
			return nil
		}

		n, err := m.Snapshot()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d registers stored, mirroring every %dms\n", n, mc.IntervalMs)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m.Run(ctx)
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Infof("mirror stopped")
		}
		return nil
	},
}

func init() {
	mirrorCmd.Flags().BoolVar(&restoreFlag, "restore", false, "write stored values back to the device and exit")
	rootCmd.AddCommand(mirrorCmd)
}
