package eeprom

import (
	"fmt"

	"go.eeprom/internal/flash"
)

// transfer compacts the active page into the receiving page and swaps their
// roles. A non-zero addr is a pending write that lands in the receiving page
// ahead of the copied variables.
//
// Commit order, each step a single flash operation:
//
//	receiving header  0xAA_FFFFFF
//	pending write, then live variables, newest first
//	receiving header  0xAA_<count>
//	erase old active page
//	receiving header  0x00_<count>
//
// Power loss before the erase leaves one active and one receiving page and
// Init resumes the copy; after the erase only the receiving page is left and
// Init promotes it.
func (s *Store) transfer(addr, data uint16) error {
	if err := s.checkCapacity(addr); err != nil {
		return err
	}

	if err := s.doTransfer(addr, data); err != nil {
		s.stale = true
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

func (s *Store) doTransfer(addr, data uint16) error {
	act := s.activePage()

	if s.receiving == none {
		next := (s.active + 1) % len(s.pages)
		cand := &s.pages[next]
		if !cand.validateEmpty() {
			s.log.Warnf("page %d is not erased, erasing before transfer", next)
			if err := cand.erase(); err != nil {
				return err
			}
		}
		s.receiving = next
	}
	rcv := &s.pages[s.receiving]

	s.log.Infof("transfer page %d -> page %d", act.index, rcv.index)

	if rcv.status() == StatusErased {
		if err := rcv.setStatus(StatusReceiving); err != nil {
			return err
		}
	}

	if addr != 0 {
		if err := rcv.appendSlot(addr, data); err != nil {
			return err
		}
	}

	// Walking backwards meets the newest copy of each address first, so the
	// first copy to reach the receiving page is the one to keep.
	copied := 0
	for i := act.slots() - 1; i >= 0; i-- {
		w := act.slot(i)
		va := DecodeAddr(w)
		if !ValidAddress(va) || rcv.holds(va) {
			continue
		}
		if err := rcv.appendSlot(va, DecodeData(w)); err != nil {
			return err
		}
		copied++
	}
	s.log.Debugf("transfer copied %d variables", copied)

	count := s.EraseCounter()
	if s.receiving == 0 && count < maxEraseCount {
		count++
	}

	if rcv.header()&eraseCountMask == eraseCountMask {
		if err := s.dev.Program(rcv.start, []uint32{EncodeHeader(StatusReceiving, count)}); err != nil {
			return err
		}
	} else {
		// Written by an interrupted transfer; keep what is on flash.
		count = rcv.header() & eraseCountMask
	}

	if err := act.erase(); err != nil {
		return err
	}

	if err := s.dev.Program(rcv.start, []uint32{EncodeHeader(StatusActive, count)}); err != nil {
		return err
	}

	s.active = s.receiving
	s.receiving = none
	return nil
}

// checkCapacity refuses a transfer whose result would not fit one page, before
// any flash is touched.
func (s *Store) checkCapacity(addr uint16) error {
	capacity := s.pages[0].slots()

	needed := 0
	present := make(map[uint16]bool)
	if s.receiving != none {
		rcv := &s.pages[s.receiving]
		if rcv.status() == StatusReceiving {
			needed = rcv.used()
			for i := 0; i < rcv.slots(); i++ {
				w := rcv.slot(i)
				if w == flash.Erased {
					break
				}
				present[DecodeAddr(w)] = true
			}
		}
	}
	if addr != 0 {
		needed++
		present[addr] = true
	}
	for va := range s.activePage().live() {
		if !present[va] {
			needed++
		}
	}

	if needed > capacity {
		return fmt.Errorf("%w: need %d slots, page has %d", ErrStoreFull, needed, capacity)
	}
	return nil
}
