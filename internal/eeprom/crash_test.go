package eeprom

import (
	"bytes"
	"fmt"
	"maps"
	"testing"

	"github.com/stretchr/testify/require"
	"go.eeprom/internal/flash"
)

// fullStore returns flash holding a store whose active page has no free slot,
// so the next new value forces a transfer.
func fullStore(t *testing.T) (*flash.Memory, map[uint16]uint16) {
	t.Helper()
	s, m := formatted(t, smallPage, 2)
	for addr := uint16(1); addr <= 10; addr++ {
		require.NoError(t, s.Write(addr, addr))
	}
	for addr := uint16(1); addr <= 5; addr++ {
		require.NoError(t, s.Write(addr, addr*11))
	}
	require.Equal(t, 0, s.Stats().FreeSlots)
	return m, s.Variables()
}

// checkRecovered runs Init on m and verifies the store holds either the old
// live set or the old set plus the pending write.
func checkRecovered(t *testing.T, m *flash.Memory, before map[uint16]uint16, addr, data uint16, label string) {
	t.Helper()
	s := openStore(t, m, 2)
	require.NoError(t, s.Init(), label)

	active := 0
	for _, p := range s.Pages() {
		require.NotEqual(t, StatusReceiving, p.Header.Status, label)
		if p.Header.Status == StatusActive {
			active++
		}
	}
	require.Equal(t, 1, active, label)

	want := maps.Clone(before)
	got := s.Variables()
	if _, landed := got[addr]; landed {
		want[addr] = data
	}
	require.Equal(t, want, got, label)

	// The recovered store keeps working.
	require.NoError(t, s.Write(addr, data+1), label)
	v, _ := s.Read(addr)
	require.Equal(t, data+1, v, label)
}

func TestPowerLossAtEveryTransferStep(t *testing.T) {
	base, before := fullStore(t)

	completed := false
	for k := 0; k < 64 && !completed; k++ {
		m := base.Clone()
		s := openStore(t, m, 2)
		require.NoError(t, s.Init())

		m.FailAfter(k, nil)
		err := s.Write(11, 1111)
		m.FailAfter(-1, nil)
		if err == nil {
			completed = true
		} else {
			require.ErrorIs(t, err, flash.ErrPowerLoss)
		}

		checkRecovered(t, m, before, 11, 1111, fmt.Sprintf("power loss after op %d", k))
	}
	require.True(t, completed, "transfer never completed")
}

func TestPowerLossDuringRecovery(t *testing.T) {
	base, before := fullStore(t)

	for k1 := 0; k1 < 20; k1++ {
		for k2 := 0; k2 < 6; k2++ {
			m := base.Clone()
			s := openStore(t, m, 2)
			require.NoError(t, s.Init())

			m.FailAfter(k1, nil)
			_ = s.Write(11, 1111)

			m.FailAfter(k2, nil)
			_ = openStore(t, m, 2).Init()
			m.FailAfter(-1, nil)

			checkRecovered(t, m, before, 11, 1111, fmt.Sprintf("losses after ops %d and %d", k1, k2))
		}
	}
}

func TestJournalReplayPrefixes(t *testing.T) {
	base, before := fullStore(t)

	var log bytes.Buffer
	recorded := base.Clone()
	j := flash.NewJournal(recorded, &log)
	s := openStore(t, j, 2)
	require.NoError(t, s.Init())
	require.NoError(t, s.Write(11, 1111))
	require.Greater(t, j.Records(), 10)

	for k := 0; k <= j.Records(); k++ {
		m := base.Clone()
		n, err := flash.Replay(bytes.NewReader(log.Bytes()), m, k)
		require.NoError(t, err)
		require.Equal(t, k, n)

		if k == j.Records() {
			require.Equal(t, recorded.Words(), m.Words())
		}
		checkRecovered(t, m, before, 11, 1111, fmt.Sprintf("journal prefix %d", k))
	}
}
