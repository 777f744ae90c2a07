package engine

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ParseWord reads a 16-bit address or value given in decimal or with a 0x
// prefix in hex.
func ParseWord(s string) (uint16, error) {
	digits, base := s, 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		digits, base = rest, 16
	}
	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid 16-bit value %q", s)
	}
	return uint16(v), nil
}

// ParseHex decodes an array payload such as "0a0b0c" or "0x0a0b0c".
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes %q: %w", s, err)
	}
	return b, nil
}
