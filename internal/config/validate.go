package config

import (
	"fmt"

	"go.eeprom/internal/flash"
	"go.eeprom/internal/logger"
)

// Geometry converts the flash section to a flash.Geometry.
func (c *Config) Geometry() flash.Geometry {
	return flash.Geometry{
		Base:             c.Flash.Base,
		PageSize:         c.Flash.PageSize,
		PagesPerInstance: c.Flash.PagesPerInstance,
		Pages:            c.Flash.Pages,
	}
}

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// FLASH GEOMETRY
	// ------------------------------------------------------------

	g := cfg.Geometry()
	if err := g.Validate(); err != nil {
		return err
	}
	if cfg.Flash.Image == "" {
		return fmt.Errorf("flash.image must be set")
	}

	// ------------------------------------------------------------
	// EEPROM PAGES INSIDE THE DEVICE
	// ------------------------------------------------------------

	e := cfg.EEPROM
	if e.Pages < 2 {
		return fmt.Errorf("eeprom.pages must be at least 2, got %d", e.Pages)
	}
	if e.Base < g.Base || (e.Base-g.Base)%g.PageSize != 0 {
		return fmt.Errorf("eeprom.base 0x%08X is not on a flash page boundary", e.Base)
	}
	if !g.Contains(e.Base, e.Pages*int(g.PageSize/4)) {
		return fmt.Errorf(
			"eeprom range 0x%08X + %d pages does not fit flash 0x%08X-0x%08X",
			e.Base,
			e.Pages,
			g.Base,
			uint64(g.Base)+uint64(g.Size())-1,
		)
	}

	// ------------------------------------------------------------
	// TLS
	// ------------------------------------------------------------

	if cfg.EnableTLS && (cfg.TLSCert == "" || cfg.TLSKey == "") {
		return fmt.Errorf("enable_tls requires tls_cert and tls_key")
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	m := cfg.Mirror
	if m.Endpoint == "" {
		return nil
	}
	if m.Quantity == 0 || m.Quantity > 125 {
		return fmt.Errorf("mirror.quantity must be 1-125, got %d", m.Quantity)
	}
	if uint32(m.Address)+uint32(m.Quantity) > 0x10000 {
		return fmt.Errorf("mirror register range %d+%d exceeds 65535", m.Address, m.Quantity)
	}
	if m.Base == 0 || uint32(m.Base)+uint32(m.Quantity)-1 >= 0xFFFF {
		return fmt.Errorf(
			"mirror virtual range 0x%04X-0x%04X uses a reserved address",
			m.Base,
			uint32(m.Base)+uint32(m.Quantity)-1,
		)
	}
	if m.IntervalMs <= 0 {
		return fmt.Errorf("mirror.interval_ms must be positive")
	}

	return nil
}
