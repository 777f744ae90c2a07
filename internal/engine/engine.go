package engine

import (
	"errors"
	"fmt"

	"go.eeprom/internal/config"
	"go.eeprom/internal/flash"
)

// Engine owns the flash stack under a store: the image file and, when
// configured, the operation journal in front of it.
type Engine struct {
	image   *flash.File
	journal *flash.Journal
}

func NewEngine(cfg *config.Config) (*Engine, error) {
	image, err := flash.OpenFile(cfg.Flash.Image, cfg.Geometry())
	if err != nil {
		return nil, fmt.Errorf("open flash image: %w", err)
	}

	eng := &Engine{image: image}

	if cfg.Journal != "" {
		j, err := flash.OpenJournal(cfg.Journal, image)
		if err != nil {
			image.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		eng.journal = j
	}

	return eng, nil
}

// Device is the flash the store should run on.
func (e *Engine) Device() flash.Device {
	if e.journal != nil {
		return e.journal
	}
	return e.image
}

func (e *Engine) Close() error {
	var errs []error
	if e.journal != nil {
		errs = append(errs, e.journal.Close())
	}
	errs = append(errs, e.image.Close())
	return errors.Join(errs...)
}
