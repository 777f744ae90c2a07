// Package eeprom emulates a 16-bit addressed EEPROM on top of NOR flash pages.
//
// Variables are appended to the active page as [address:16][data:16] words.
// The newest copy of an address is the one closest to the end of the page.
// When the active page is full its live variables are copied into the next
// page (a transfer), after which the old page is erased. Page headers carry
// the state needed to finish an interrupted transfer on the next Init.
//
// A Store is not safe for concurrent use.
package eeprom

import (
	"errors"
	"fmt"

	"go.eeprom/internal/flash"
	"go.eeprom/internal/logger"
)

const none = -1

type Store struct {
	dev       flash.Device
	pages     []page
	active    int
	receiving int
	// stale is set when a transfer failed part way; the next call re-derives
	// the page roles from flash before acting.
	stale bool
	log   *logger.Logger
}

// New lays out count pages of the device's page size starting at base. The
// store is unusable until Init or Format succeeds.
func New(dev flash.Device, base uint32, count int, opts ...Option) (*Store, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidLayout)
	}
	if count < 2 {
		return nil, fmt.Errorf("%w: need at least 2 pages, got %d", ErrInvalidLayout, count)
	}

	size := dev.PageSize()
	if size < 8 || size%4 != 0 {
		return nil, fmt.Errorf("%w: page size %d", ErrInvalidLayout, size)
	}
	if base%4 != 0 {
		return nil, fmt.Errorf("%w: base 0x%08X is not word aligned", ErrInvalidLayout, base)
	}
	if uint64(base)+uint64(size)*uint64(count) > 1<<32 {
		return nil, fmt.Errorf("%w: %d pages at 0x%08X overflow the address space", ErrInvalidLayout, count, base)
	}

	if !dev.Contains(base, int(size/4)*count) {
		return nil, fmt.Errorf("%w: %d pages at 0x%08X run past the end of the device", ErrInvalidLayout, count, base)
	}

	s := &Store{
		dev:       dev,
		pages:     make([]page, count),
		active:    none,
		receiving: none,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := range s.pages {
		start := base + uint32(i)*size
		end := start + size - 4
		if dev.AddrToInstance(start) != dev.AddrToInstance(end) || dev.AddrToPage(start) != dev.AddrToPage(end) {
			return nil, fmt.Errorf("%w: page %d at 0x%08X is not aligned to an erase page", ErrInvalidLayout, i, start)
		}
		s.pages[i] = page{dev: dev, index: i, start: start, end: end}
	}

	return s, nil
}

func (s *Store) ready() error {
	if s.stale {
		s.log.Warnf("re-reading page states after failed transfer")
		if err := s.Init(); err != nil {
			return err
		}
	}
	if s.active == none {
		return ErrNotInitialized
	}
	return nil
}

func (s *Store) activePage() *page {
	return &s.pages[s.active]
}

// Read returns the current value of addr.
func (s *Store) Read(addr uint16) (uint16, bool) {
	v, err := s.Lookup(addr)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Errorf("read 0x%04X: %v", addr, err)
	}
	return v, err == nil
}

// Lookup is Read with the reason for a miss: ErrNotFound, ErrInvalidAddress,
// or the error that kept the store from becoming ready.
func (s *Store) Lookup(addr uint16) (uint16, error) {
	if !ValidAddress(addr) {
		return 0, fmt.Errorf("read 0x%04X: %w", addr, ErrInvalidAddress)
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	v, ok := s.activePage().findLatest(addr)
	if !ok {
		return 0, fmt.Errorf("0x%04X: %w", addr, ErrNotFound)
	}
	return v, nil
}

// Write stores data at addr. Writing the value already stored is a no-op.
func (s *Store) Write(addr, data uint16) error {
	if !ValidAddress(addr) {
		return fmt.Errorf("write 0x%04X: %w", addr, ErrInvalidAddress)
	}
	if err := s.ready(); err != nil {
		return err
	}

	if v, ok := s.activePage().findLatest(addr); ok && v == data {
		return nil
	}
	return s.put(addr, data)
}

// put appends without the read-back check, transferring when the page is full.
func (s *Store) put(addr, data uint16) error {
	err := s.activePage().appendSlot(addr, data)
	if errors.Is(err, ErrPageFull) {
		return s.transfer(addr, data)
	}
	return err
}

// Delete tombstones every copy of addr in the active page and reports whether
// there was one.
func (s *Store) Delete(addr uint16) (bool, error) {
	if !ValidAddress(addr) {
		return false, fmt.Errorf("delete 0x%04X: %w", addr, ErrInvalidAddress)
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.activePage().tombstone(addr)
}

// EraseCounter is the number of completed page cycles recorded in the active
// page header, or 0xFFFFFF when there is no active page.
func (s *Store) EraseCounter() uint32 {
	if s.active == none {
		return eraseCountMask
	}
	return DecodeEraseCount(s.activePage().header())
}

// Variables returns the live set of the active page.
func (s *Store) Variables() map[uint16]uint16 {
	if err := s.ready(); err != nil {
		return map[uint16]uint16{}
	}
	return s.activePage().live()
}

type Stats struct {
	Pages         int
	SlotsPerPage  int
	ActivePage    int
	ReceivingPage int
	UsedSlots     int
	FreeSlots     int
	LiveVariables int
	EraseCounter  uint32
}

func (s *Store) Stats() Stats {
	st := Stats{
		Pages:         len(s.pages),
		SlotsPerPage:  s.pages[0].slots(),
		ActivePage:    s.active,
		ReceivingPage: s.receiving,
		EraseCounter:  s.EraseCounter(),
	}
	if s.active != none {
		p := s.activePage()
		st.UsedSlots = p.used()
		st.FreeSlots = st.SlotsPerPage - st.UsedSlots
		st.LiveVariables = len(p.live())
	}
	return st
}

type PageInfo struct {
	Index     int
	Start     uint32
	End       uint32
	Header    Header
	UsedSlots int
}

// Pages describes every page as it currently reads back from flash.
func (s *Store) Pages() []PageInfo {
	out := make([]PageInfo, len(s.pages))
	for i := range s.pages {
		p := &s.pages[i]
		out[i] = PageInfo{
			Index:     i,
			Start:     p.start,
			End:       p.end,
			Header:    DecodeHeader(p.header()),
			UsedSlots: p.used(),
		}
	}
	return out
}
