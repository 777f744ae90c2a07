package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.eeprom/internal/config"
	"go.eeprom/internal/eeprom"
	"go.eeprom/internal/flash"
	"go.eeprom/internal/logger"
)

// Open brings up the store described by cfg. A store that needs formatting is
// still returned; its operations fail until Format succeeds.
func Open(cfg *config.Config, log *logger.Logger) (*Database, error) {
	eng, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	db, err := OpenDevice(eng.Device(), cfg.EEPROM.Base, cfg.EEPROM.Pages, cfg.EEPROM.AutoFormat, log)
	if err != nil {
		eng.Close()
		return nil, err
	}
	db.engine = eng
	return db, nil
}

// OpenDevice runs a store directly on dev.
func OpenDevice(dev flash.Device, base uint32, pages int, autoFormat bool, log *logger.Logger) (*Database, error) {
	store, err := eeprom.New(dev, base, pages, eeprom.WithLogger(log))
	if err != nil {
		return nil, err
	}

	db := &Database{store: store, log: log}

	err = store.Init()
	switch {
	case err == nil:
	case errors.Is(err, eeprom.ErrNoValidPage) && autoFormat:
		log.Warnf("no valid page found, formatting")
		if err := store.Format(); err != nil {
			return nil, err
		}
	case errors.Is(err, eeprom.ErrNoValidPage),
		errors.Is(err, eeprom.ErrMultipleActivePages),
		errors.Is(err, eeprom.ErrMultipleReceivingPages):
		log.Errorf("store unusable until formatted: %v", err)
		db.initErr = err
	default:
		return nil, err
	}

	return db, nil
}

// OpenLog opens the log file for the process in cfg.LogDir.
func OpenLog(cfg *config.Config) (*logger.Logger, *os.File, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	logPath := filepath.Join(cfg.LogDir, "veeprom.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return logger.New(logFile, level), logFile, nil
}
