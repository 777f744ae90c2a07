package flash

import "slices"

// Memory is a RAM backed NOR array. Program rejects any write that would set
// a cleared bit, so it doubles as a checker for callers that must only clear
// bits.
type Memory struct {
	geo    Geometry
	words  []uint32
	erases []int

	programs  int
	mutations int
	failAfter int
	failErr   error
}

func NewMemory(g Geometry) (*Memory, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	words := make([]uint32, g.Words())
	for i := range words {
		words[i] = Erased
	}

	return &Memory{
		geo:       g,
		words:     words,
		erases:    make([]int, g.Pages),
		failAfter: -1,
	}, nil
}

func (m *Memory) Geometry() Geometry {
	return m.geo
}

func (m *Memory) PageSize() uint32 {
	return m.geo.PageSize
}

func (m *Memory) AddrToInstance(addr uint32) uint32 {
	return m.geo.AddrToInstance(addr)
}

func (m *Memory) AddrToPage(addr uint32) uint32 {
	return m.geo.AddrToPage(addr)
}

func (m *Memory) Contains(addr uint32, n int) bool {
	return m.geo.Contains(addr, n)
}

func (m *Memory) index(addr uint32, n int) (int, error) {
	if addr%4 != 0 {
		return 0, &RangeError{Addr: addr, Reason: "not word aligned"}
	}
	if !m.geo.Contains(addr, n) {
		return 0, &RangeError{Addr: addr, Reason: "outside flash array"}
	}
	return int((addr - m.geo.Base) / 4), nil
}

func (m *Memory) ReadWord(addr uint32) uint32 {
	i, err := m.index(addr, 1)
	if err != nil {
		panic(err)
	}
	return m.words[i]
}

// FailAfter lets n more program/erase calls succeed; every later call fails
// with err (ErrPowerLoss when nil) and leaves the array untouched.
// A negative n disables the fault.
func (m *Memory) FailAfter(n int, err error) {
	if err == nil {
		err = ErrPowerLoss
	}
	m.failAfter = n
	m.failErr = err
	m.mutations = 0
}

func (m *Memory) tripped() bool {
	if m.failAfter < 0 {
		return false
	}
	if m.mutations >= m.failAfter {
		return true
	}
	m.mutations++
	return false
}

func (m *Memory) Program(dst uint32, src []uint32) error {
	i, err := m.index(dst, len(src))
	if err != nil {
		return err
	}

	// Validate the whole run before touching any word.
	for j, w := range src {
		have := m.words[i+j]
		if w&^have != 0 {
			return &MonotonicError{Addr: dst + uint32(j)*4, Have: have, Want: w}
		}
	}

	if m.tripped() {
		return m.failErr
	}

	copy(m.words[i:], src)
	m.programs++
	return nil
}

func (m *Memory) ErasePage(instance, page uint32) error {
	addr, err := m.geo.PageAddr(instance, page)
	if err != nil {
		return err
	}

	if m.tripped() {
		return m.failErr
	}

	i := int((addr - m.geo.Base) / 4)
	n := int(m.geo.PageSize / 4)
	for j := i; j < i+n; j++ {
		m.words[j] = Erased
	}
	m.erases[(addr-m.geo.Base)/m.geo.PageSize]++
	return nil
}

// EraseCycles is the number of erases the page at index idx has seen.
func (m *Memory) EraseCycles(idx int) int {
	if idx < 0 || idx >= len(m.erases) {
		return 0
	}
	return m.erases[idx]
}

// Programs counts successful program calls.
func (m *Memory) Programs() int {
	return m.programs
}

// Words returns a copy of the array contents.
func (m *Memory) Words() []uint32 {
	return slices.Clone(m.words)
}

// Clone copies contents and wear counters; fault injection is not copied.
func (m *Memory) Clone() *Memory {
	return &Memory{
		geo:       m.geo,
		words:     slices.Clone(m.words),
		erases:    slices.Clone(m.erases),
		programs:  m.programs,
		failAfter: -1,
	}
}
