package eeprom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitBlankFlashNeedsFormat(t *testing.T) {
	m := newMemory(t, smallPage, 2)
	s := openStore(t, m, 2)

	require.ErrorIs(t, s.Init(), ErrNoValidPage)
	assert.ErrorIs(t, s.Write(1, 1), ErrNotInitialized)

	require.NoError(t, s.Format())
	assert.Equal(t, uint32(0x00000001), m.ReadWord(0))
	assert.Equal(t, uint32(1), s.EraseCounter())
	require.NoError(t, s.Write(1, 1))
}

func TestInitReopensExistingStore(t *testing.T) {
	s, m := formatted(t, smallPage, 2)
	for addr := uint16(1); addr <= 20; addr++ {
		require.NoError(t, s.Write(addr%8+1, addr))
	}
	want := s.Variables()

	reopened := openStore(t, m, 2)
	require.NoError(t, reopened.Init())
	assert.Equal(t, want, reopened.Variables())
	assert.Equal(t, s.Stats().ActivePage, reopened.Stats().ActivePage)
}

func TestInitRejectsTwoActivePages(t *testing.T) {
	m := newMemory(t, smallPage, 3)
	require.NoError(t, m.Program(0, []uint32{EncodeHeader(StatusActive, 1)}))
	require.NoError(t, m.Program(2*smallPage, []uint32{EncodeHeader(StatusActive, 1)}))

	s := openStore(t, m, 3)
	require.ErrorIs(t, s.Init(), ErrMultipleActivePages)
	assert.ErrorIs(t, s.Write(1, 1), ErrNotInitialized)
}

func TestInitRejectsTwoReceivingPages(t *testing.T) {
	m := newMemory(t, smallPage, 3)
	require.NoError(t, m.Program(smallPage, []uint32{EncodeHeader(StatusReceiving, eraseCountMask)}))
	require.NoError(t, m.Program(2*smallPage, []uint32{EncodeHeader(StatusReceiving, eraseCountMask)}))

	s := openStore(t, m, 3)
	require.ErrorIs(t, s.Init(), ErrMultipleReceivingPages)
}

func TestInitPromotesLoneReceivingPage(t *testing.T) {
	m := newMemory(t, smallPage, 2)
	require.NoError(t, m.Program(smallPage, []uint32{
		EncodeHeader(StatusReceiving, eraseCountMask),
		EncodeSlot(5, 50),
		EncodeSlot(6, 60),
	}))

	s := openStore(t, m, 2)
	require.NoError(t, s.Init())

	assert.Equal(t, 1, s.Stats().ActivePage)
	assert.Equal(t, uint32(0x00FFFFFF), m.ReadWord(smallPage))
	assert.Equal(t, uint32(0), s.EraseCounter())
	assert.Equal(t, map[uint16]uint16{5: 50, 6: 60}, s.Variables())
}

func TestInitPromotionKeepsWrittenEraseCounter(t *testing.T) {
	m := newMemory(t, smallPage, 2)
	require.NoError(t, m.Program(0, []uint32{EncodeHeader(StatusReceiving, 3), EncodeSlot(1, 1)}))

	s := openStore(t, m, 2)
	require.NoError(t, s.Init())
	assert.Equal(t, uint32(0x00000003), m.ReadWord(0))
	assert.Equal(t, uint32(3), s.EraseCounter())
}

func TestInitErasesDirtyErasedPage(t *testing.T) {
	s, m := formatted(t, smallPage, 2)
	require.NoError(t, s.Write(1, 1))
	require.NoError(t, m.Program(smallPage+12, []uint32{0x12345678}))

	reopened := openStore(t, m, 2)
	require.NoError(t, reopened.Init())

	requireErased(t, m, 1, smallPage)
	assert.Equal(t, 1, m.EraseCycles(1))
	assert.Equal(t, 0, m.EraseCycles(0))
}

func TestInitErasesUndefinedStatus(t *testing.T) {
	s, m := formatted(t, smallPage, 3)
	require.NoError(t, s.Write(1, 1))
	require.NoError(t, m.Program(2*smallPage, []uint32{0x55FFFFFF, 0}))

	reopened := openStore(t, m, 3)
	require.NoError(t, reopened.Init())

	requireErased(t, m, 2, smallPage)
	v, ok := reopened.Read(1)
	require.True(t, ok)
	assert.Equal(t, uint16(1), v)
}

func TestFormatClearsEverything(t *testing.T) {
	s, m := formatted(t, smallPage, 3)
	for addr := uint16(1); addr <= 40; addr++ {
		require.NoError(t, s.Write(addr%10+1, addr))
	}
	require.NotEqual(t, 0, s.Stats().ActivePage)

	require.NoError(t, s.Format())

	assert.Equal(t, 0, s.Stats().ActivePage)
	assert.Empty(t, s.Variables())
	assert.Equal(t, uint32(1), s.EraseCounter())
	requireErased(t, m, 1, smallPage)
	requireErased(t, m, 2, smallPage)
}
