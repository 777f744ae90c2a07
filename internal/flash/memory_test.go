package flash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeometry = Geometry{Base: 0x1000, PageSize: 64, PagesPerInstance: 2, Pages: 4}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := NewMemory(testGeometry)
	require.NoError(t, err)
	return m
}

func TestMemoryStartsErased(t *testing.T) {
	m := newTestMemory(t)
	for _, w := range m.Words() {
		require.Equal(t, Erased, w)
	}
}

func TestProgramClearsBits(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Program(0x1004, []uint32{0x12345678, 0xFFFF0000}))
	assert.Equal(t, uint32(0x12345678), m.ReadWord(0x1004))
	assert.Equal(t, uint32(0xFFFF0000), m.ReadWord(0x1008))

	// Clearing more bits of an already programmed word is legal.
	require.NoError(t, m.Program(0x1004, []uint32{0x00005678}))
	assert.Equal(t, uint32(0x00005678), m.ReadWord(0x1004))
	assert.Equal(t, 2, m.Programs())
}

func TestProgramRejectsSettingBits(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.Program(0x1000, []uint32{0x0000FFFF}))

	err := m.Program(0x1000, []uint32{0x0001FFFF})
	var mono *MonotonicError
	require.ErrorAs(t, err, &mono)
	assert.Equal(t, uint32(0x1000), mono.Addr)
	assert.Equal(t, uint32(0x0000FFFF), m.ReadWord(0x1000))
}

func TestProgramIsAllOrNothing(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.Program(0x1008, []uint32{0}))

	err := m.Program(0x1004, []uint32{0xAAAAAAAA, 0x1})
	require.Error(t, err)
	assert.Equal(t, Erased, m.ReadWord(0x1004), "first word must not be written when the second fails")
}

func TestProgramRange(t *testing.T) {
	m := newTestMemory(t)

	var rerr *RangeError
	require.ErrorAs(t, m.Program(0x1002, []uint32{0}), &rerr)
	require.ErrorAs(t, m.Program(0x0FFC, []uint32{0}), &rerr)
	require.ErrorAs(t, m.Program(0x10FC, []uint32{0, 0}), &rerr)
	require.NoError(t, m.Program(0x10FC, []uint32{0}))

	assert.Panics(t, func() { m.ReadWord(0x1100) })
}

func TestAddressTranslation(t *testing.T) {
	g := testGeometry
	cases := []struct {
		addr     uint32
		instance uint32
		page     uint32
	}{
		{0x1000, 0, 0},
		{0x103C, 0, 0},
		{0x1040, 0, 1},
		{0x1080, 1, 0},
		{0x10C4, 1, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.instance, g.AddrToInstance(c.addr), "instance of 0x%X", c.addr)
		assert.Equal(t, c.page, g.AddrToPage(c.addr), "page of 0x%X", c.addr)

		base, err := g.PageAddr(c.instance, c.page)
		require.NoError(t, err)
		assert.Equal(t, c.addr&^(g.PageSize-1), base)
	}

	_, err := g.PageAddr(2, 0)
	assert.Error(t, err)
}

func TestErasePage(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.Program(0x1040, []uint32{0, 0, 0}))
	require.NoError(t, m.Program(0x1000, []uint32{0}))

	require.NoError(t, m.ErasePage(m.AddrToInstance(0x1040), m.AddrToPage(0x1040)))

	assert.Equal(t, Erased, m.ReadWord(0x1040))
	assert.Equal(t, Erased, m.ReadWord(0x1048))
	assert.Equal(t, uint32(0), m.ReadWord(0x1000), "neighbouring page untouched")
	assert.Equal(t, 1, m.EraseCycles(1))
	assert.Equal(t, 0, m.EraseCycles(0))
}

func TestFailAfter(t *testing.T) {
	m := newTestMemory(t)
	m.FailAfter(1, nil)

	require.NoError(t, m.Program(0x1000, []uint32{1}))
	err := m.Program(0x1004, []uint32{2})
	require.True(t, errors.Is(err, ErrPowerLoss))
	assert.Equal(t, Erased, m.ReadWord(0x1004))
	require.ErrorIs(t, m.ErasePage(0, 0), ErrPowerLoss)
	assert.Equal(t, uint32(1), m.ReadWord(0x1000))

	m.FailAfter(-1, nil)
	require.NoError(t, m.Program(0x1004, []uint32{2}))
}

func TestCloneIsIndependent(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.Program(0x1000, []uint32{7}))

	c := m.Clone()
	require.NoError(t, c.Program(0x1004, []uint32{8}))

	assert.Equal(t, uint32(7), c.ReadWord(0x1000))
	assert.Equal(t, Erased, m.ReadWord(0x1004))
}

func TestGeometryValidate(t *testing.T) {
	assert.NoError(t, DefaultGeometry.Validate())
	assert.ErrorIs(t, Geometry{PageSize: 6, PagesPerInstance: 1, Pages: 1}.Validate(), ErrInvalidGeometry)
	assert.ErrorIs(t, Geometry{Base: 2, PageSize: 8, PagesPerInstance: 1, Pages: 1}.Validate(), ErrInvalidGeometry)
	assert.ErrorIs(t, Geometry{PageSize: 8, PagesPerInstance: 1}.Validate(), ErrInvalidGeometry)
}
