// Package mirror keeps a block of Modbus holding registers persisted in the
// emulated EEPROM. Register Address+i is stored at virtual address Base+i.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.eeprom/internal/eeprom"
	"go.eeprom/internal/logger"
)

// Registers is the device side of the mirror. *Client implements it.
type Registers interface {
	ReadRegisters(addr, qty uint16) ([]uint16, error)
	WriteRegisters(addr uint16, regs []uint16) error
}

// Store is the persistent side. *engine.Database implements it.
type Store interface {
	Get(addr uint16) (uint16, error)
	Set(addr, val uint16) error
}

type Block struct {
	Address  uint16
	Quantity uint16
	Base     uint16
}

type Mirror struct {
	regs     Registers
	store    Store
	block    Block
	interval time.Duration
	log      *logger.Logger
}

func New(regs Registers, store Store, block Block, interval time.Duration, log *logger.Logger) *Mirror {
	return &Mirror{
		regs:     regs,
		store:    store,
		block:    block,
		interval: interval,
		log:      log,
	}
}

// Snapshot reads the register block and stores every register, returning how
// many stored values changed.
func (m *Mirror) Snapshot() (int, error) {
	regs, err := m.regs.ReadRegisters(m.block.Address, m.block.Quantity)
	if err != nil {
		return 0, fmt.Errorf("read registers %d+%d: %w", m.block.Address, m.block.Quantity, err)
	}

	changed := 0
	for i, v := range regs {
		addr := m.block.Base + uint16(i)

		old, err := m.store.Get(addr)
		switch {
		case err == nil && old == v:
			continue
		case err != nil && !errors.Is(err, eeprom.ErrNotFound):
			return changed, err
		}

		if err := m.store.Set(addr, v); err != nil {
			return changed, fmt.Errorf("store register %d: %w", m.block.Address+uint16(i), err)
		}
		changed++
	}
	return changed, nil
}

// Restore writes the stored values back to the device. Registers with no
// stored value are left alone, so the block may go out as several writes.
func (m *Mirror) Restore() (int, error) {
	restored := 0
	var run []uint16
	start := uint16(0)

	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		if err := m.regs.WriteRegisters(start, run); err != nil {
			return fmt.Errorf("write registers %d+%d: %w", start, len(run), err)
		}
		restored += len(run)
		run = nil
		return nil
	}

	for i := uint16(0); i < m.block.Quantity; i++ {
		v, err := m.store.Get(m.block.Base + i)
		if errors.Is(err, eeprom.ErrNotFound) {
			if err := flush(); err != nil {
				return restored, err
			}
			continue
		}
		if err != nil {
			return restored, err
		}

		if len(run) == 0 {
			start = m.block.Address + i
		}
		run = append(run, v)
	}

	if err := flush(); err != nil {
		return restored, err
	}
	return restored, nil
}

// Run snapshots on every tick until ctx is done. Failed snapshots are logged
// and retried on the next tick.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Snapshot()
			if err != nil {
				m.log.Errorf("mirror snapshot: %v", err)
				continue
			}
			if n > 0 {
				m.log.Debugf("mirror stored %d changed registers", n)
			}
		}
	}
}
