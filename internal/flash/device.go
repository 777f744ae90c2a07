// Package flash models NOR flash as seen by the EEPROM emulator: words can only
// have bits cleared by a program operation, and only a page erase sets them
// back to one.
package flash

import "fmt"

// Erased is the value of every word after a page erase.
const Erased uint32 = 0xFFFFFFFF

// Device is the primitive adapter the emulator runs on.
type Device interface {
	// PageSize is the erase granularity in bytes.
	PageSize() uint32
	// ReadWord returns the word at a 4-byte aligned address. Addresses outside
	// the device panic with a *RangeError.
	ReadWord(addr uint32) uint32
	// Program writes len(src) words starting at dst. It may only clear bits.
	Program(dst uint32, src []uint32) error
	// ErasePage sets every word of one page to Erased.
	ErasePage(instance, page uint32) error
	AddrToInstance(addr uint32) uint32
	AddrToPage(addr uint32) uint32
	// Contains reports whether n words starting at addr are on the device.
	Contains(addr uint32, n int) bool
}

// Geometry describes a flash array: Pages pages of PageSize bytes starting at
// Base, grouped in instances (banks) of PagesPerInstance pages.
type Geometry struct {
	Base             uint32
	PageSize         uint32
	PagesPerInstance uint32
	Pages            uint32
}

// DefaultGeometry matches a 1 MiB part with two 512 KiB instances of 8 KiB pages.
var DefaultGeometry = Geometry{
	Base:             0,
	PageSize:         8192,
	PagesPerInstance: 64,
	Pages:            128,
}

func (g Geometry) Validate() error {
	if g.PageSize < 8 || g.PageSize%4 != 0 {
		return fmt.Errorf("%w: page size %d must be a multiple of 4 and at least 8", ErrInvalidGeometry, g.PageSize)
	}
	if g.Base%4 != 0 {
		return fmt.Errorf("%w: base 0x%08X is not word aligned", ErrInvalidGeometry, g.Base)
	}
	if g.Pages == 0 || g.PagesPerInstance == 0 {
		return fmt.Errorf("%w: page counts must be positive", ErrInvalidGeometry)
	}
	if uint64(g.Base)+uint64(g.PageSize)*uint64(g.Pages) > 1<<32 {
		return fmt.Errorf("%w: array does not fit a 32-bit address space", ErrInvalidGeometry)
	}
	return nil
}

// Size is the array size in bytes.
func (g Geometry) Size() uint32 {
	return g.PageSize * g.Pages
}

// Words is the array size in 32-bit words.
func (g Geometry) Words() int {
	return int(g.Size() / 4)
}

// Contains reports whether n words starting at addr lie inside the array.
func (g Geometry) Contains(addr uint32, n int) bool {
	if addr < g.Base || n < 0 {
		return false
	}
	end := uint64(addr-g.Base) + uint64(n)*4
	return end <= uint64(g.Size())
}

func (g Geometry) AddrToInstance(addr uint32) uint32 {
	return (addr - g.Base) / (g.PageSize * g.PagesPerInstance)
}

func (g Geometry) AddrToPage(addr uint32) uint32 {
	return ((addr - g.Base) / g.PageSize) % g.PagesPerInstance
}

// PageAddr is the inverse of AddrToInstance/AddrToPage.
func (g Geometry) PageAddr(instance, page uint32) (uint32, error) {
	if page >= g.PagesPerInstance {
		return 0, &RangeError{Addr: page, Reason: "page index beyond instance"}
	}
	idx := uint64(instance)*uint64(g.PagesPerInstance) + uint64(page)
	if idx >= uint64(g.Pages) {
		return 0, &RangeError{Addr: uint32(idx), Reason: "page index beyond device"}
	}
	return g.Base + uint32(idx)*g.PageSize, nil
}
