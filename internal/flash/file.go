package flash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// File is a flash array persisted as a raw little-endian image, laid out
// exactly like a dump of the device. All checks run against an in-memory copy
// and every accepted change is written through and synced.
type File struct {
	f   *os.File
	mem *Memory
}

// OpenFile opens the image at path, creating an erased one if it does not exist.
func OpenFile(path string, g Geometry) (*File, error) {
	mem, err := NewMemory(g)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if errors.Is(err, os.ErrNotExist) {
		f, err = createImage(path, g)
	}
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat flash image: %w", err)
	}
	if info.Size() != int64(g.Size()) {
		f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes, geometry needs %d", ErrCorruptImage, path, info.Size(), g.Size())
	}

	buf := make([]byte, g.Size())
	if _, err := f.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read flash image: %w", err)
	}
	for i := range mem.words {
		mem.words[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	return &File{f: f, mem: mem}, nil
}

func createImage(path string, g Geometry) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create flash image %s: %w", path, err)
	}

	page := bytes.Repeat([]byte{0xFF}, int(g.PageSize))
	for i := uint32(0); i < g.Pages; i++ {
		if _, err := f.Write(page); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write erased page %d to %s: %w", i, path, err)
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (fl *File) Geometry() Geometry {
	return fl.mem.geo
}

func (fl *File) PageSize() uint32 {
	return fl.mem.PageSize()
}

func (fl *File) AddrToInstance(addr uint32) uint32 {
	return fl.mem.AddrToInstance(addr)
}

func (fl *File) AddrToPage(addr uint32) uint32 {
	return fl.mem.AddrToPage(addr)
}

func (fl *File) Contains(addr uint32, n int) bool {
	return fl.mem.Contains(addr, n)
}

func (fl *File) ReadWord(addr uint32) uint32 {
	return fl.mem.ReadWord(addr)
}

// Program and ErasePage only keep a change in memory once it is synced to
// disk, so the two copies never disagree after a failed write.
func (fl *File) Program(dst uint32, src []uint32) error {
	i, err := fl.mem.index(dst, len(src))
	if err != nil {
		return err
	}
	old := slices.Clone(fl.mem.words[i : i+len(src)])

	if err := fl.mem.Program(dst, src); err != nil {
		return err
	}

	buf := make([]byte, len(src)*4)
	for j, w := range src {
		binary.LittleEndian.PutUint32(buf[j*4:], w)
	}
	if err := fl.writeAt(buf, dst); err != nil {
		copy(fl.mem.words[i:], old)
		fl.mem.programs--
		return err
	}
	return nil
}

func (fl *File) ErasePage(instance, page uint32) error {
	addr, err := fl.mem.geo.PageAddr(instance, page)
	if err != nil {
		return err
	}
	i := int((addr - fl.mem.geo.Base) / 4)
	old := slices.Clone(fl.mem.words[i : i+int(fl.mem.geo.PageSize/4)])

	if err := fl.mem.ErasePage(instance, page); err != nil {
		return err
	}
	if err := fl.writeAt(bytes.Repeat([]byte{0xFF}, int(fl.mem.geo.PageSize)), addr); err != nil {
		copy(fl.mem.words[i:], old)
		fl.mem.erases[(addr-fl.mem.geo.Base)/fl.mem.geo.PageSize]--
		return err
	}
	return nil
}

func (fl *File) writeAt(buf []byte, addr uint32) error {
	off := int64(addr - fl.mem.geo.Base)
	n, err := fl.f.WriteAt(buf, off)
	if err != nil {
		return fmt.Errorf("write flash image at 0x%08X: %w", addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("write flash image at 0x%08X: short write %d/%d", addr, n, len(buf))
	}
	return fl.f.Sync()
}

// Snapshot returns the current image contents as a Memory.
func (fl *File) Snapshot() *Memory {
	return fl.mem.Clone()
}

func (fl *File) Close() error {
	return fl.f.Close()
}
