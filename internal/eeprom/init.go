package eeprom

import "fmt"

// Init classifies every page from its header, erases pages left dirty by a
// crash, and finishes any interrupted transfer. ErrNoValidPage means the
// flash holds no store and Format must be called.
func (s *Store) Init() error {
	s.active = none
	s.receiving = none
	s.stale = false

	active, receiving := none, none
	for i := range s.pages {
		p := &s.pages[i]
		switch st := p.status(); st {
		case StatusActive:
			if active != none {
				return fmt.Errorf("%w: pages %d and %d", ErrMultipleActivePages, active, i)
			}
			active = i
		case StatusReceiving:
			if receiving != none {
				return fmt.Errorf("%w: pages %d and %d", ErrMultipleReceivingPages, receiving, i)
			}
			receiving = i
		case StatusErased:
			if !p.validateEmpty() {
				s.log.Warnf("page %d has an erased header but is not empty, erasing", i)
				if err := p.erase(); err != nil {
					return fmt.Errorf("erase page %d: %w", i, err)
				}
			}
		default:
			s.log.Warnf("page %d has undefined status %s, erasing", i, st)
			if err := p.erase(); err != nil {
				return fmt.Errorf("erase page %d: %w", i, err)
			}
		}
	}

	switch {
	case active == none && receiving == none:
		return ErrNoValidPage

	case active == none:
		// The old active page was already erased; the receiving page holds
		// everything.
		p := &s.pages[receiving]
		s.log.Warnf("promoting receiving page %d to active", receiving)
		if err := s.dev.Program(p.start, []uint32{EncodeHeader(StatusActive, p.header()&eraseCountMask)}); err != nil {
			return fmt.Errorf("promote page %d: %w", receiving, err)
		}
		s.active = receiving

	case receiving == none:
		s.active = active

	default:
		s.log.Warnf("resuming interrupted transfer page %d -> page %d", active, receiving)
		s.active = active
		s.receiving = receiving
		if err := s.transfer(0, 0); err != nil {
			s.active, s.receiving = none, none
			return err
		}
	}

	s.log.Debugf("store ready: active page %d, erase counter %d", s.active, s.EraseCounter())
	return nil
}

// Format erases every page that is not already empty and starts a fresh
// store in page 0 with an erase counter of 1.
func (s *Store) Format() error {
	s.active = none
	s.receiving = none
	s.stale = false

	for i := len(s.pages) - 1; i >= 0; i-- {
		p := &s.pages[i]
		if p.validateEmpty() {
			continue
		}
		if err := p.erase(); err != nil {
			return fmt.Errorf("format: erase page %d: %w", i, err)
		}
	}

	if err := s.dev.Program(s.pages[0].start, []uint32{EncodeHeader(StatusActive, 1)}); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	s.active = 0
	s.log.Infof("formatted %d pages", len(s.pages))
	return nil
}
