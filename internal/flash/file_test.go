package flash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileCreatesErasedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")

	f, err := OpenFile(path, testGeometry)
	require.NoError(t, err)
	defer f.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(testGeometry.Size()), info.Size())
	assert.Equal(t, Erased, f.ReadWord(testGeometry.Base))
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")

	f, err := OpenFile(path, testGeometry)
	require.NoError(t, err)
	require.NoError(t, f.Program(0x1044, []uint32{0x00AB00CD}))
	require.NoError(t, f.Program(0x1000, []uint32{0x11111111}))
	require.NoError(t, f.ErasePage(0, 0))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCD, 0x00, 0xAB, 0x00}, raw[0x44:0x48], "words are stored little endian")

	f, err = OpenFile(path, testGeometry)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, uint32(0x00AB00CD), f.ReadWord(0x1044))
	assert.Equal(t, Erased, f.ReadWord(0x1000))

	var mono *MonotonicError
	require.ErrorAs(t, f.Program(0x1044, []uint32{0xFFFFFFFF}), &mono)
}

func TestOpenFileRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 10), 0o644))

	_, err := OpenFile(path, testGeometry)
	require.ErrorIs(t, err, ErrCorruptImage)
}

func TestFailedDiskWriteLeavesWordsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")

	f, err := OpenFile(path, testGeometry)
	require.NoError(t, err)
	require.NoError(t, f.Program(0x1040, []uint32{0x00010002}))
	programs := f.mem.Programs()

	// Any further WriteAt on the image fails.
	require.NoError(t, f.f.Close())

	assert.Error(t, f.Program(0x1044, []uint32{0x00030004, 0x00050006}))
	assert.Equal(t, Erased, f.ReadWord(0x1044))
	assert.Equal(t, Erased, f.ReadWord(0x1048))
	assert.Equal(t, programs, f.mem.Programs())

	assert.Error(t, f.ErasePage(0, 1))
	assert.Equal(t, uint32(0x00010002), f.ReadWord(0x1040))
	assert.Equal(t, 0, f.mem.EraseCycles(1))

	g, err := OpenFile(path, testGeometry)
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, f.Snapshot().Words(), g.Snapshot().Words())
}
