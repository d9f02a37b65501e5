/*
kos - Concrete file descriptor operations vectors.

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

// Package fdops implements the four concrete operations vectors that
// §4.9's open()/read()/write()/close() dispatch through: the terminal
// (descriptors 0 and 1), RTC, and the read-only filesystem's regular
// files and directories. Each is grounded on the same device package
// the syscall already needs (keyboard, video, rtc, fsimage) — this
// package is purely the glue that lets process.FileDescriptor hold a
// process.FileOps without those device packages depending on process.
package fdops

import (
	"encoding/binary"

	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/keyboard"
	"github.com/rcornwell/kos/internal/process"
	"github.com/rcornwell/kos/internal/rtc"
	"github.com/rcornwell/kos/internal/video"
)

// TerminalIn is descriptor 0: line-buffered keyboard input for the
// owning process's terminal.
type TerminalIn struct{}

func (TerminalIn) Open(p *process.PCB, fd *process.FileDescriptor, name string) int32 { return 0 }
func (TerminalIn) Close(p *process.PCB, fd *process.FileDescriptor) int32             { return -1 }

func (TerminalIn) Read(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	line := keyboard.Line(p.Terminal)
	if !line.NewlineDelivered {
		return 0
	}
	n := copy(buf, line.Buf[:line.Len])
	keyboard.ResetLine(p.Terminal)
	return int32(n)
}

func (TerminalIn) Write(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	return -1
}

// TerminalOut is descriptor 1: direct-to-framebuffer output on the
// owning process's terminal.
type TerminalOut struct{}

func (TerminalOut) Open(p *process.PCB, fd *process.FileDescriptor, name string) int32 { return 0 }
func (TerminalOut) Close(p *process.PCB, fd *process.FileDescriptor) int32             { return -1 }
func (TerminalOut) Read(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32  { return -1 }

func (TerminalOut) Write(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	for _, b := range buf {
		video.PutChar(p.Terminal, b)
	}
	return int32(len(buf))
}

// RTC is the real-time clock device, opened by name "rtc".
type RTC struct{}

func (RTC) Open(p *process.PCB, fd *process.FileDescriptor, name string) int32 {
	rtc.Open(p.Terminal)
	return 0
}
func (RTC) Close(p *process.PCB, fd *process.FileDescriptor) int32 { return 0 }

func (RTC) Read(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	for !rtc.Poll(p.Terminal, 1) {
		// Busy-poll with interrupts enabled: the scheduler tick may
		// hand this terminal's turn to another terminal before the
		// next virtual RTC interrupt lands.
	}
	return 0
}

func (RTC) Write(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	if len(buf) < 4 {
		return -1
	}
	hz := binary.LittleEndian.Uint32(buf)
	if err := rtc.SetFrequency(p.Terminal, int(hz)); err != nil {
		return -1
	}
	return 0
}

// RegularFile serves read-only filesystem files opened by name.
type RegularFile struct {
	Image *fsimage.Image
}

func (r RegularFile) Open(p *process.PCB, fd *process.FileDescriptor, name string) int32 {
	entry, err := r.Image.LookupByName(name)
	if err != nil || entry.Type != fsimage.TypeRegular {
		return -1
	}
	fd.Inode = entry.Inode
	fd.Position = 0
	return 0
}

func (r RegularFile) Close(p *process.PCB, fd *process.FileDescriptor) int32 { return 0 }

func (r RegularFile) Read(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	n, err := r.Image.ReadData(fd.Inode, fd.Position, buf)
	if err != nil {
		return -1
	}
	fd.Position += uint32(n)
	return int32(n)
}

func (r RegularFile) Write(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	return -1
}

// Directory serves the directory pseudo-file "." via dir_read
// semantics, one filename per read() call.
type Directory struct {
	Image *fsimage.Image
}

func (d Directory) Open(p *process.PCB, fd *process.FileDescriptor, name string) int32 {
	if name != "." {
		return -1
	}
	return 0
}

func (d Directory) Close(p *process.PCB, fd *process.FileDescriptor) int32 { return 0 }

func (d Directory) Read(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	n := d.Image.DirRead(buf)
	return int32(n)
}

func (d Directory) Write(p *process.PCB, fd *process.FileDescriptor, buf []byte) int32 {
	return -1
}
