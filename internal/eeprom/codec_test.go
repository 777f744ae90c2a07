package eeprom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotCodec(t *testing.T) {
	w := EncodeSlot(0x1234, 0xABCD)
	assert.Equal(t, uint32(0x1234ABCD), w)
	assert.Equal(t, uint16(0x1234), DecodeAddr(w))
	assert.Equal(t, uint16(0xABCD), DecodeData(w))
}

func TestHeaderCodec(t *testing.T) {
	assert.Equal(t, uint32(0x00000001), EncodeHeader(StatusActive, 1))
	assert.Equal(t, uint32(0xAAFFFFFF), EncodeHeader(StatusReceiving, eraseCountMask))
	assert.Equal(t, uint32(0xAA123456), EncodeHeader(StatusReceiving, 0xFF123456), "count is masked to 24 bits")

	assert.Equal(t, Header{Status: StatusActive, EraseCount: 7}, DecodeHeader(0x00000007))
	assert.Equal(t, Header{Status: StatusActive, EraseCount: 0}, DecodeHeader(0x00FFFFFF))
	assert.Equal(t, Header{Status: StatusErased, EraseCount: 0}, DecodeHeader(0xFFFFFFFF))
	assert.Equal(t, StatusReceiving, DecodeStatus(0xAA000010))
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusActive.Known())
	assert.True(t, StatusReceiving.Known())
	assert.True(t, StatusErased.Known())
	assert.False(t, Status(0x55).Known())
	assert.Equal(t, "unknown(0x55)", Status(0x55).String())
}

func TestValidAddress(t *testing.T) {
	assert.False(t, ValidAddress(0x0000))
	assert.False(t, ValidAddress(0xFFFF))
	assert.True(t, ValidAddress(0x0001))
	assert.True(t, ValidAddress(0xFFFE))
}
