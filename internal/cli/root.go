package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.eeprom/internal/config"
	"go.eeprom/internal/engine"
	"go.eeprom/internal/logger"
)

var (
	homeFlag   string
	configFlag string

	cfg     *config.Config
	log     *logger.Logger
	logFile *os.File
	db      *engine.Database

	// set while the shell is running so the store stays open between commands
	inShell bool
)

var rootCmd = &cobra.Command{
	Use:           "veeprom",
	Short:         "veeprom - EEPROM emulation on NOR flash",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg != nil && inShell {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(homeFlag, configFlag)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, logFile, err = engine.OpenLog(cfg)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if inShell {
			return nil
		}
		return closeAll()
	},
}

// openDB opens the store once per process, or once per shell session.
func openDB() (*engine.Database, error) {
	if db != nil {
		return db, nil
	}

	var err error
	db, err = engine.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, nil
}

func closeAll() error {
	var err error
	if db != nil {
		err = db.Close()
		db = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	cfg = nil
	return err
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		closeAll()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "veeprom home directory (default $VEEPROM_HOME or ~/.local/share/veeprom)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default <home>/config.yaml)")
}
