package flash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"
)

// Journal records every program and erase before handing it to the wrapped
// device, so the exact sequence of flash operations can be replayed later,
// in full or cut short to reproduce a power loss at any step.
//
// Record layout (little endian):
//
//	op      uint8   1 = program, 2 = erase
//	a       uint32  program: destination address, erase: instance
//	b       uint32  erase: page
//	n       uint32  number of payload words
//	payload n * uint32
//	crc     uint32  IEEE crc32 of everything above
type Journal struct {
	dev Device
	w   io.Writer

	mu      sync.Mutex
	records int
}

const (
	opProgram byte = 1
	opErase   byte = 2

	journalHeaderSize = 13
	maxJournalWords   = 1 << 20
)

func NewJournal(dev Device, w io.Writer) *Journal {
	return &Journal{dev: dev, w: w}
}

// OpenJournal appends to the journal file at path.
func OpenJournal(path string, dev Device) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, err
	}
	return NewJournal(dev, f), nil
}

func (j *Journal) PageSize() uint32 {
	return j.dev.PageSize()
}

func (j *Journal) ReadWord(addr uint32) uint32 {
	return j.dev.ReadWord(addr)
}

func (j *Journal) Contains(addr uint32, n int) bool {
	return j.dev.Contains(addr, n)
}

func (j *Journal) AddrToInstance(addr uint32) uint32 {
	return j.dev.AddrToInstance(addr)
}

func (j *Journal) AddrToPage(addr uint32) uint32 {
	return j.dev.AddrToPage(addr)
}

func (j *Journal) Program(dst uint32, src []uint32) error {
	if err := j.append(opProgram, dst, 0, src); err != nil {
		return err
	}
	return j.dev.Program(dst, src)
}

func (j *Journal) ErasePage(instance, page uint32) error {
	if err := j.append(opErase, instance, page, nil); err != nil {
		return err
	}
	return j.dev.ErasePage(instance, page)
}

// Records is the number of operations written so far.
func (j *Journal) Records() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

func (j *Journal) append(op byte, a, b uint32, words []uint32) error {
	buf := make([]byte, journalHeaderSize+len(words)*4+4)
	buf[0] = op
	binary.LittleEndian.PutUint32(buf[1:5], a)
	binary.LittleEndian.PutUint32(buf[5:9], b)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(words)))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[journalHeaderSize+i*4:], w)
	}

	body := len(buf) - 4
	binary.LittleEndian.PutUint32(buf[body:], crc32.ChecksumIEEE(buf[:body]))

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.w.Write(buf); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if s, ok := j.w.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	j.records++
	return nil
}

func (j *Journal) Close() error {
	if c, ok := j.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Replay applies up to limit journal records from r to dev and returns how
// many were applied. A negative limit replays everything. A record cut off by
// the end of the stream ends the replay without error.
func Replay(r io.Reader, dev Device, limit int) (int, error) {
	header := make([]byte, journalHeaderSize)
	applied := 0

	for limit < 0 || applied < limit {
		if _, err := io.ReadFull(r, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return applied, err
		}

		op := header[0]
		a := binary.LittleEndian.Uint32(header[1:5])
		b := binary.LittleEndian.Uint32(header[5:9])
		n := binary.LittleEndian.Uint32(header[9:13])
		if n > maxJournalWords {
			return applied, fmt.Errorf("%w: record %d claims %d words", ErrCorruptJournal, applied, n)
		}

		rest := make([]byte, n*4+4)
		if _, err := io.ReadFull(r, rest); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return applied, err
		}

		crc := crc32.NewIEEE()
		crc.Write(header)
		crc.Write(rest[:n*4])
		if crc.Sum32() != binary.LittleEndian.Uint32(rest[n*4:]) {
			return applied, fmt.Errorf("replay: %w (record=%d)", ErrChecksumMismatch, applied)
		}

		var err error
		switch op {
		case opProgram:
			words := make([]uint32, n)
			for i := range words {
				words[i] = binary.LittleEndian.Uint32(rest[i*4:])
			}
			err = dev.Program(a, words)
		case opErase:
			err = dev.ErasePage(a, b)
		default:
			return applied, fmt.Errorf("%w: record %d has unknown op %d", ErrCorruptJournal, applied, op)
		}
		if err != nil {
			return applied, fmt.Errorf("replay record %d: %w", applied, err)
		}
		applied++
	}

	return applied, nil
}
