package eeprom

import (
	"fmt"

	"go.eeprom/internal/flash"
)

// page is one erase sector: a header word followed by slots up to end.
type page struct {
	dev   flash.Device
	index int
	start uint32
	end   uint32
}

func (p *page) header() uint32 {
	return p.dev.ReadWord(p.start)
}

func (p *page) status() Status {
	return DecodeStatus(p.header())
}

func (p *page) slots() int {
	return int((p.end - p.start) / 4)
}

func (p *page) slotAddr(i int) uint32 {
	return p.start + 4 + uint32(i)*4
}

func (p *page) slot(i int) uint32 {
	return p.dev.ReadWord(p.slotAddr(i))
}

// validateEmpty checks every word, header included.
func (p *page) validateEmpty() bool {
	n := p.slots()
	if p.header() != flash.Erased {
		return false
	}
	for i := 0; i < n; i++ {
		if p.slot(i) != flash.Erased {
			return false
		}
	}
	return true
}

// setStatus programs the status byte and leaves the counter bits erased.
func (p *page) setStatus(st Status) error {
	return p.dev.Program(p.start, []uint32{EncodeHeader(st, eraseCountMask)})
}

func (p *page) erase() error {
	return p.dev.ErasePage(p.dev.AddrToInstance(p.start), p.dev.AddrToPage(p.start))
}

func (p *page) appendSlot(addr, data uint16) error {
	n := p.slots()
	for i := 0; i < n; i++ {
		if p.slot(i) != flash.Erased {
			continue
		}
		if err := p.dev.Program(p.slotAddr(i), []uint32{EncodeSlot(addr, data)}); err != nil {
			return fmt.Errorf("page %d slot %d: %w", p.index, i, err)
		}
		return nil
	}
	return ErrPageFull
}

// findLatest scans from the end, where the newest copy of a variable lives.
func (p *page) findLatest(addr uint16) (uint16, bool) {
	for i := p.slots() - 1; i >= 0; i-- {
		w := p.slot(i)
		if DecodeAddr(w) == addr {
			return DecodeData(w), true
		}
	}
	return 0, false
}

// holds scans forward and stops at the first empty slot.
func (p *page) holds(addr uint16) bool {
	n := p.slots()
	for i := 0; i < n; i++ {
		w := p.slot(i)
		if w == flash.Erased {
			return false
		}
		if DecodeAddr(w) == addr {
			return true
		}
	}
	return false
}

// tombstone zeroes the address field of every slot holding addr. The data
// bits are programmed unchanged so the write only ever clears bits.
func (p *page) tombstone(addr uint16) (bool, error) {
	found := false
	for i := p.slots() - 1; i >= 0; i-- {
		w := p.slot(i)
		if DecodeAddr(w) != addr {
			continue
		}
		found = true
		if err := p.dev.Program(p.slotAddr(i), []uint32{uint32(DecodeData(w))}); err != nil {
			return found, fmt.Errorf("page %d slot %d: %w", p.index, i, err)
		}
	}
	return found, nil
}

func (p *page) used() int {
	used := 0
	n := p.slots()
	for i := 0; i < n; i++ {
		if p.slot(i) != flash.Erased {
			used++
		}
	}
	return used
}

// live returns the newest value of every valid address in the page.
func (p *page) live() map[uint16]uint16 {
	vars := make(map[uint16]uint16)
	for i := p.slots() - 1; i >= 0; i-- {
		w := p.slot(i)
		addr := DecodeAddr(w)
		if !ValidAddress(addr) {
			continue
		}
		if _, seen := vars[addr]; !seen {
			vars[addr] = DecodeData(w)
		}
	}
	return vars
}
