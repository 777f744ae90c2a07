package eeprom

import "fmt"

// Status is the top byte of a page header word.
type Status uint8

const (
	StatusActive    Status = 0x00
	StatusReceiving Status = 0xAA
	StatusErased    Status = 0xFF
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusReceiving:
		return "receiving"
	case StatusErased:
		return "erased"
	}
	return fmt.Sprintf("unknown(0x%02X)", uint8(s))
}

// Known reports whether s is one of the three defined page states.
func (s Status) Known() bool {
	return s == StatusActive || s == StatusReceiving || s == StatusErased
}

const (
	eraseCountMask uint32 = 0x00FFFFFF
	maxEraseCount  uint32 = eraseCountMask - 1

	reservedLow  uint16 = 0x0000
	reservedHigh uint16 = 0xFFFF
)

// Header is the decoded form of a page's first word.
type Header struct {
	Status     Status
	EraseCount uint32
}

// EncodeSlot packs a variable into one flash word: [addr:16][data:16].
func EncodeSlot(addr, data uint16) uint32 {
	return uint32(addr)<<16 | uint32(data)
}

func DecodeAddr(w uint32) uint16 {
	return uint16(w >> 16)
}

func DecodeData(w uint32) uint16 {
	return uint16(w)
}

func EncodeHeader(s Status, eraseCount uint32) uint32 {
	return uint32(s)<<24 | eraseCount&eraseCountMask
}

func DecodeStatus(w uint32) Status {
	return Status(w >> 24)
}

// DecodeEraseCount reads the low 24 bits; an unwritten (all ones) counter is 0.
func DecodeEraseCount(w uint32) uint32 {
	c := w & eraseCountMask
	if c == eraseCountMask {
		return 0
	}
	return c
}

func DecodeHeader(w uint32) Header {
	return Header{Status: DecodeStatus(w), EraseCount: DecodeEraseCount(w)}
}

// ValidAddress reports whether addr can name a variable.
func ValidAddress(addr uint16) bool {
	return addr != reservedLow && addr != reservedHigh
}
