/*
kos - Read-only filesystem image reader.

Copyright (c) 2026, kos contributors

Permission is hereby granted, free of charge, to any person obtaining a
copy of this software and associated documentation files (the "Software"),
to deal in the Software without restriction, including without limitation
the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons to whom the
Software is furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package fsimage reads the boot-block/inode/data-block filesystem
// image of §3/§6: a 4 KiB boot block with three counters and up to 63
// 64-byte directory entries, followed by inode_count 4 KiB inode
// blocks, followed by data blocks. All integers are 32-bit
// little-endian; names are up to 32 bytes, not NUL-terminated.
package fsimage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const (
	BlockSize       = 4096
	MaxDirEntries   = 63
	DirEntrySize    = 64
	NameLen         = 32
	MaxBlockIndices = 1023

	TypeDevice   = 0
	TypeDirectory = 1
	TypeRegular  = 2
)

var (
	ErrNotFound    = errors.New("fsimage: file not found")
	ErrOutOfRange  = errors.New("fsimage: index out of range")
	ErrTruncated   = errors.New("fsimage: image shorter than boot block claims")
)

// DirEntry mirrors one 64-byte directory entry.
type DirEntry struct {
	Name  [NameLen]byte
	Type  uint32
	Inode uint32
}

// FileName returns the entry's name as a Go string, trimmed at the
// first embedded NUL if any (names need not be NUL-terminated, so a
// full 32-byte name with no NUL is returned whole).
func (e DirEntry) FileName() string {
	n := NameLen
	for i, b := range e.Name {
		if b == 0 {
			n = i
			break
		}
	}
	return string(e.Name[:n])
}

type inode struct {
	length uint32
	blocks [MaxBlockIndices]uint32
}

// Image is an attached, fully in-memory read-only filesystem image.
type Image struct {
	raw []byte

	dirCount   uint32
	inodeCount uint32
	dataCount  uint32

	dirEntries [MaxDirEntries]DirEntry

	dirCursor int // module-global cursor used by dir_read.
}

// Open reads the entire image file into memory and parses the boot
// block, mirroring the bootloader handoff of §6 (here a file takes
// the place of the pre-populated memory-module descriptor).
func Open(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fsimage: %w", err)
	}
	return FromBytes(raw)
}

// FromBytes parses an already-loaded image, used directly by tests and
// by Open.
func FromBytes(raw []byte) (*Image, error) {
	if len(raw) < BlockSize {
		return nil, ErrTruncated
	}
	img := &Image{raw: raw}
	img.dirCount = binary.LittleEndian.Uint32(raw[0:4])
	img.inodeCount = binary.LittleEndian.Uint32(raw[4:8])
	img.dataCount = binary.LittleEndian.Uint32(raw[8:12])

	if img.dirCount > MaxDirEntries {
		img.dirCount = MaxDirEntries
	}
	for i := uint32(0); i < img.dirCount; i++ {
		off := 64 + i*DirEntrySize
		var e DirEntry
		copy(e.Name[:], raw[off:off+NameLen])
		e.Type = binary.LittleEndian.Uint32(raw[off+32 : off+36])
		e.Inode = binary.LittleEndian.Uint32(raw[off+36 : off+40])
		img.dirEntries[i] = e
	}

	need := BlockSize + int(img.inodeCount)*BlockSize + int(img.dataCount)*BlockSize
	if len(raw) < need {
		return nil, ErrTruncated
	}
	return img, nil
}

// LookupByName performs the linear, length-bounded scan of §4.6.
func (img *Image) LookupByName(name string) (DirEntry, error) {
	for i := uint32(0); i < img.dirCount; i++ {
		if img.dirEntries[i].FileName() == name {
			return img.dirEntries[i], nil
		}
	}
	return DirEntry{}, ErrNotFound
}

// LookupByIndex returns the i-th directory entry, bounds-checked.
func (img *Image) LookupByIndex(i uint32) (DirEntry, error) {
	if i >= img.dirCount {
		return DirEntry{}, ErrOutOfRange
	}
	return img.dirEntries[i], nil
}

// DirCount returns the number of directory entries in the image.
func (img *Image) DirCount() uint32 {
	return img.dirCount
}

func (img *Image) readInode(i uint32) (inode, error) {
	var in inode
	if i >= img.inodeCount {
		return in, ErrOutOfRange
	}
	off := BlockSize + int(i)*BlockSize
	in.length = binary.LittleEndian.Uint32(img.raw[off : off+4])
	for b := 0; b < MaxBlockIndices; b++ {
		p := off + 4 + b*4
		in.blocks[b] = binary.LittleEndian.Uint32(img.raw[p : p+4])
	}
	return in, nil
}

// InodeLength returns inode i's byte length, bounds-checked.
func (img *Image) InodeLength(i uint32) (uint32, error) {
	in, err := img.readInode(i)
	if err != nil {
		return 0, err
	}
	return in.length, nil
}

// ReadData implements read-data(inode-index, offset, buffer, length)
// from §4.6: bounds-checks the inode index, clamps length to
// inode.length-offset, and copies the intersecting byte ranges of the
// 4 KiB-aligned blocks spanning [offset, offset+length).
func (img *Image) ReadData(inodeIndex uint32, offset uint32, buf []byte) (int, error) {
	in, err := img.readInode(inodeIndex)
	if err != nil {
		return 0, err
	}
	if offset >= in.length {
		return 0, nil
	}
	length := uint32(len(buf))
	if remaining := in.length - offset; length > remaining {
		length = remaining
	}
	if length == 0 {
		return 0, nil
	}

	startBlock := offset / BlockSize
	endBlock := (offset + length - 1) / BlockSize

	copied := uint32(0)
	for b := startBlock; b <= endBlock; b++ {
		if int(b) >= len(in.blocks) {
			break
		}
		physBlock := in.blocks[b]
		dataOff := BlockSize + int(img.inodeCount)*BlockSize + int(physBlock)*BlockSize

		blockStart := b * BlockSize
		blockEnd := blockStart + BlockSize

		copyStart := offset + copied
		if copyStart < blockStart {
			copyStart = blockStart
		}
		copyEnd := offset + length
		if copyEnd > blockEnd {
			copyEnd = blockEnd
		}
		if copyEnd <= copyStart {
			continue
		}

		srcOff := dataOff + int(copyStart-blockStart)
		n := int(copyEnd - copyStart)
		copy(buf[copied:copied+uint32(n)], img.raw[srcOff:srcOff+n])
		copied += uint32(n)
	}
	return int(copied), nil
}

// DirRead implements dir_read: returns one 32-byte filename per call,
// advancing a module-global cursor until exhaustion, then returns 0
// and resets.
func (img *Image) DirRead(buf []byte) int {
	if img.dirCursor >= int(img.dirCount) {
		img.dirCursor = 0
		return 0
	}
	n := copy(buf, img.dirEntries[img.dirCursor].Name[:])
	img.dirCursor++
	return n
}
