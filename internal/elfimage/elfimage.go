/*
kos - Minimal executable header reader.

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

// Package elfimage validates and reads the executable format of §6:
// the first four bytes must be the magic 0x7F 'E' 'L' 'F', and bytes
// 24..27 little-endian give the entry virtual address. This is
// deliberately the spec's own minimal header, not a general ELF64
// reader.
package elfimage

import (
	"encoding/binary"
	"errors"
)

var ErrBadMagic = errors.New("elfimage: missing ELF magic")

var magic = [4]byte{0x7F, 'E', 'L', 'F'}

const entryOffset = 24

// EntryPoint validates the magic and returns the little-endian entry
// address at bytes 24..27. An image shorter than entryOffset+4 bytes
// is treated as a bad executable.
func EntryPoint(image []byte) (uint32, error) {
	if len(image) < entryOffset+4 {
		return 0, ErrBadMagic
	}
	if image[0] != magic[0] || image[1] != magic[1] || image[2] != magic[2] || image[3] != magic[3] {
		return 0, ErrBadMagic
	}
	return binary.LittleEndian.Uint32(image[entryOffset : entryOffset+4]), nil
}
