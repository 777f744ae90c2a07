package eeprom

import "fmt"

// MaxArrayLen is the longest array whose length fits the head slot.
const MaxArrayLen = 0xFF

// Arrays occupy consecutive addresses, one byte per slot. The head slot at
// addr holds (length << 8) | data[0]; the following slots hold one byte each.

func checkSpan(addr uint16, n int) error {
	if !ValidAddress(addr) || uint32(addr)+uint32(n)-1 >= uint32(reservedHigh) {
		return fmt.Errorf("%d bytes at 0x%04X: %w", n, addr, ErrInvalidAddress)
	}
	return nil
}

// ReadArray returns the array stored at addr. When an element is missing the
// bytes read so far are returned together with ErrPartialArray.
func (s *Store) ReadArray(addr uint16, maxLen int) ([]byte, error) {
	head, err := s.Lookup(addr)
	if err != nil {
		return nil, fmt.Errorf("array: %w", err)
	}

	n := int(head >> 8)
	if n > maxLen {
		return nil, &ArrayLengthError{Addr: addr, Length: n, Max: maxLen}
	}

	out := make([]byte, 0, n)
	if n == 0 {
		return out, nil
	}
	out = append(out, byte(head))

	for i := 1; i < n; i++ {
		v, ok := s.Read(addr + uint16(i))
		if !ok {
			return out, fmt.Errorf("array 0x%04X: %w: %d of %d bytes", addr, ErrPartialArray, len(out), n)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// WriteArray stores data as a length-prefixed array. If an array of another
// length is already stored at addr, all of its elements are deleted first so
// no orphaned tail survives.
func (s *Store) WriteArray(addr uint16, data []byte) error {
	if len(data) == 0 || len(data) > MaxArrayLen {
		return &ArrayLengthError{Addr: addr, Length: len(data), Max: MaxArrayLen}
	}
	if err := checkSpan(addr, len(data)); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}

	if head, ok := s.activePage().findLatest(addr); ok {
		if old := int(head >> 8); old != len(data) {
			for i := 0; i < old; i++ {
				a := addr + uint16(i)
				if !ValidAddress(a) {
					break
				}
				if _, err := s.activePage().tombstone(a); err != nil {
					return err
				}
			}
		}
	}

	if err := s.put(addr, uint16(len(data))<<8|uint16(data[0])); err != nil {
		return err
	}
	for i := 1; i < len(data); i++ {
		if err := s.put(addr+uint16(i), uint16(data[i])); err != nil {
			return err
		}
	}
	return nil
}

// DeleteArray deletes every element of the array at addr.
func (s *Store) DeleteArray(addr uint16) (bool, error) {
	head, ok := s.Read(addr)
	if !ok {
		return false, nil
	}

	n := max(int(head>>8), 1)
	deleted := false
	for i := 0; i < n; i++ {
		a := addr + uint16(i)
		if !ValidAddress(a) {
			break
		}
		d, err := s.Delete(a)
		if err != nil {
			return deleted, err
		}
		deleted = deleted || d
	}
	return deleted, nil
}

// ReadBytes reads n single-byte variables starting at addr, with no length
// header.
func (s *Store) ReadBytes(addr uint16, n int) ([]byte, error) {
	if err := checkSpan(addr, n); err != nil {
		return nil, err
	}

	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		v, ok := s.Read(addr + uint16(i))
		if !ok {
			return out, fmt.Errorf("bytes 0x%04X: %w: %d of %d bytes", addr, ErrPartialArray, len(out), n)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// WriteBytes writes each byte of data as its own variable. Unchanged bytes
// are skipped.
func (s *Store) WriteBytes(addr uint16, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := checkSpan(addr, len(data)); err != nil {
		return err
	}

	for i, b := range data {
		if err := s.Write(addr+uint16(i), uint16(b)); err != nil {
			return err
		}
	}
	return nil
}
