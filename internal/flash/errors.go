package flash

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGeometry  = errors.New("invalid flash geometry")
	ErrPowerLoss        = errors.New("simulated power loss")
	ErrCorruptImage     = errors.New("flash image is corrupt")
	ErrChecksumMismatch = errors.New("checksum does not match")
	ErrCorruptJournal   = errors.New("journal is corrupt")
)

// RangeError reports an access outside the array or one that is not word aligned.
type RangeError struct {
	Addr   uint32
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("flash address 0x%08X: %s", e.Addr, e.Reason)
}

// MonotonicError reports a program operation that would need to set a bit
// that is currently zero.
type MonotonicError struct {
	Addr uint32
	Have uint32
	Want uint32
}

func (e *MonotonicError) Error() string {
	return fmt.Sprintf("flash program at 0x%08X sets cleared bits: have 0x%08X, want 0x%08X",
		e.Addr, e.Have, e.Want)
}
