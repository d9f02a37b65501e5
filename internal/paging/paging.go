/*
kos - Two-level page table subsystem.

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

// Package paging builds and switches the kernel's two-level virtual
// memory layout, per §4.1 of the core specification: a low 4 MiB page
// table mapping the text framebuffer and three backup pages, a 4 MiB
// large-page kernel mapping, one directory entry rewritten on every
// process switch to point at the running process's 4 MiB image, and
// the vidmap user-video mapping.
package paging

import "github.com/rcornwell/kos/internal/ports"

const (
	PageSize      = 4 * 1024
	LargePageSize = 4 * 1024 * 1024

	// VideoBase is the physical/virtual address of the visible VGA
	// text-mode framebuffer in the low 4 MiB identity region.
	VideoBase = 0xB8000

	// UserImageBase is the virtual address every user program is
	// loaded at and where its 4 MiB page is mapped.
	UserImageBase = 0x08000000 // 128 MiB, directory entry 32.

	// UserVidmapBase is the fixed virtual address vidmap() installs.
	UserVidmapBase = 0x08800000 // 136 MiB, directory entry 34.

	numDirEntries = 1024
)

// Entry models one directory-entry worth of bookkeeping: whether it is
// present, whether it is a 4 MiB large page, and which physical frame
// backs it.
type Entry struct {
	Present   bool
	Large     bool
	Supervisor bool
	Frame     uint32 // physical frame number this entry maps.
}

// Directory is the kernel's single page directory, shared by every
// process (only the user-image and vidmap entries vary per process).
type Directory struct {
	entries [numDirEntries]Entry

	// backup holds the three inactive terminals' backing-store frames,
	// addressed by terminal id; video.go owns their contents, paging
	// only owns the mapping.
	backup [3]uint32
}

var dir Directory

// Init clears the directory and installs the fixed low-memory and
// kernel-image mappings described in §4.1.
func Init(kernelImageFrame uint32) {
	dir = Directory{}
	dir.entries[0] = Entry{Present: true, Large: false, Supervisor: true}
	// Kernel image: one 4 MiB large page, global (modeled as always
	// resident — there is no global-bit distinction worth tracking in
	// software since nothing ever evicts it).
	dir.entries[kernelImageFrame/LargePageSize] = Entry{
		Present: true, Large: true, Supervisor: true, Frame: kernelImageFrame / LargePageSize,
	}
	ports.FlushTLB()
}

// MapVideo marks the low 4 MiB directory entry present and
// supervisor-only and records the three per-terminal backup frames.
// videoFrame is not recorded: the low 4 MiB is modeled as that single
// directory entry, with no second-level page table behind it. Called
// once at boot by the video package.
func MapVideo(videoFrame uint32, backupFrames [3]uint32) {
	dir.entries[0] = Entry{Present: true, Supervisor: true}
	dir.backup = backupFrames
	_ = videoFrame
}

// ActivateProcess rewrites the user-image directory entry to point at
// the process's 4 MiB physical frame and flushes the translation
// cache, per §4.1 "Process activation".
func ActivateProcess(frame uint32) {
	idx := UserImageBase / LargePageSize
	dir.entries[idx] = Entry{Present: true, Large: true, Supervisor: false, Frame: frame}
	ports.FlushTLB()
}

// Vidmap installs the fixed user-visible video page pointing at the
// currently foreground terminal's on-screen frame, returning the fixed
// virtual address for the syscall to hand back to the caller.
func Vidmap(activeFrame uint32) uint32 {
	idx := UserVidmapBase / LargePageSize
	dir.entries[idx] = Entry{Present: true, Supervisor: false, Frame: activeFrame}
	ports.FlushTLB()
	return UserVidmapBase
}

// InUserSpace reports whether addr lies within the user-addressable
// range used by pointer-validation checks across the syscall layer
// (§4.9, §7): the program image up through the top of the user stack,
// or the vidmap page once installed.
func InUserSpace(addr, length uint32) bool {
	const userStackTop = 0x08400000
	if addr < UserImageBase {
		return false
	}
	if addr+length < addr { // overflow
		return false
	}
	if addr >= UserImageBase && addr+length <= userStackTop {
		return true
	}
	if addr >= UserVidmapBase && addr+length <= UserVidmapBase+PageSize {
		return true
	}
	return false
}

// FrameForProcess is a pure function from process id to the physical
// 4 MiB frame its image lives in, mirroring the PCB-address-from-pid
// formula in §3/§9: each process gets one dedicated 4 MiB frame above
// the kernel image.
func FrameForProcess(pid int) uint32 {
	const firstUserFrame = 2 // frame 0: low 4MiB, frame 1: kernel image.
	return uint32(firstUserFrame + pid)
}
