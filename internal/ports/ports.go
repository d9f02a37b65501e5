/*
kos - Port-mapped I/O primitives and translation-cache control.

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

// Package ports models the legacy I/O address space (§6 of the core
// specification): PIC, PIT, RTC, keyboard and VGA CRTC registers.
// Real hardware addresses these with the x86 in/out instructions; this
// model addresses a fixed 64 KiB byte array so the rest of the kernel
// can be written against the same port numbers the spec enumerates
// without requiring actual ring-0 privilege.
package ports

import "sync"

const (
	PICPrimaryCommand   = 0x20
	PICPrimaryData      = 0x21
	PICSecondaryCommand = 0xA0
	PICSecondaryData    = 0xA1

	PITCommand  = 0x43
	PITChannel0 = 0x40

	RTCIndex = 0x70
	RTCData  = 0x71

	KeyboardData   = 0x60
	KeyboardStatus = 0x64

	VGACRTCIndex = 0x3D4
	VGACRTCData  = 0x3D5
)

type space struct {
	mu   sync.Mutex
	data [0x10000]uint8
}

var io space

// In8 reads a byte from the given port.
func In8(port uint16) uint8 {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.data[port]
}

// Out8 writes a byte to the given port.
func Out8(port uint16, value uint8) {
	io.mu.Lock()
	defer io.mu.Unlock()
	io.data[port] = value
}

// tlbGen counts translation-cache flushes. FlushTLB advances it;
// callers observe a flush by comparing TLBGeneration before and after.
var tlbGen uint64

// FlushTLB stands in for reloading CR3: it invalidates every cached
// translation.
func FlushTLB() {
	tlbGen++
}

// TLBGeneration returns the current translation-cache generation,
// useful for tests asserting a flush happened around a process switch.
func TLBGeneration() uint64 {
	return tlbGen
}
