package eeprom

import (
	"errors"
	"fmt"
)

var (
	// init
	ErrNoValidPage            = errors.New("no active or receiving page, store needs format")
	ErrMultipleActivePages    = errors.New("more than one active page")
	ErrMultipleReceivingPages = errors.New("more than one receiving page")
	ErrInvalidLayout          = errors.New("invalid page layout")
	// operations
	ErrNotInitialized = errors.New("store is not initialized")
	ErrInvalidAddress = errors.New("invalid virtual address")
	ErrNotFound       = errors.New("variable not found")
	ErrPartialArray   = errors.New("array is incomplete")
	ErrPageFull       = errors.New("no empty slot left in page")
	ErrStoreFull      = errors.New("live variables do not fit in one page")
)

// ArrayLengthError reports an array whose length is out of bounds, either on
// write or against the caller's buffer on read.
type ArrayLengthError struct {
	Addr   uint16
	Length int
	Max    int
}

func (e *ArrayLengthError) Error() string {
	return fmt.Sprintf("array at 0x%04X: length %d out of range 1-%d", e.Addr, e.Length, e.Max)
}
