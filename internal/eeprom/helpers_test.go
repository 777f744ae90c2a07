package eeprom

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.eeprom/internal/flash"
)

// 16 words per page: one header and 15 slots.
const smallPage = 64

func newMemory(t *testing.T, pageSize uint32, pages int) *flash.Memory {
	t.Helper()
	m, err := flash.NewMemory(flash.Geometry{
		Base:             0,
		PageSize:         pageSize,
		PagesPerInstance: uint32(pages),
		Pages:            uint32(pages),
	})
	require.NoError(t, err)
	return m
}

func openStore(t *testing.T, dev flash.Device, pages int) *Store {
	t.Helper()
	s, err := New(dev, 0, pages)
	require.NoError(t, err)
	return s
}

func formatted(t *testing.T, pageSize uint32, pages int) (*Store, *flash.Memory) {
	t.Helper()
	m := newMemory(t, pageSize, pages)
	s := openStore(t, m, pages)
	require.NoError(t, s.Format())
	return s, m
}

func pageWords(m *flash.Memory, idx int, pageSize uint32) []uint32 {
	words := m.Words()
	n := int(pageSize / 4)
	return words[idx*n : (idx+1)*n]
}

func requireErased(t *testing.T, m *flash.Memory, idx int, pageSize uint32) {
	t.Helper()
	for i, w := range pageWords(m, idx, pageSize) {
		require.Equal(t, flash.Erased, w, "page %d word %d", idx, i)
	}
}
