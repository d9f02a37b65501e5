/*
kos - Process control blocks, descriptor tables and the pid bitmap.

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

// Package process implements the PCB table of §3: a fixed-size table
// of N=6 slots addressed by pid, an allocator bitmap, and the 8-entry
// file descriptor table each PCB owns. A Go struct array with an
// allocator replaces the "PCB address is a pure function of pid, found
// by aligning the kernel stack pointer" trick of the original design
// (see §9) — the table still gives every piece of kernel code a way to
// reach any other process's PCB by pid alone.
package process

import (
	"errors"
	"sync"
)

const (
	MaxProcesses = 6
	NumFDs       = 8
	NumSignals   = 5
	ArgsMaxLen   = 128

	// NoParent marks a base shell's PCB, which has no parent to return
	// status to.
	NoParent = -1
)

var (
	ErrNoFreeProcess = errors.New("process: no free process slots")
	ErrBadFD         = errors.New("process: invalid or unopened descriptor")
	ErrFDInUse       = errors.New("process: no free descriptor")
)

// FileOps is the four-function-pointer operations vector of §3,
// dispatched by fd number from the syscall layer.
type FileOps interface {
	Open(p *PCB, fd *FileDescriptor, name string) int32
	Close(p *PCB, fd *FileDescriptor) int32
	Read(p *PCB, fd *FileDescriptor, buf []byte) int32
	Write(p *PCB, fd *FileDescriptor, buf []byte) int32
}

// FileDescriptor is one entry of a PCB's 8-entry table.
type FileDescriptor struct {
	Ops      FileOps
	Inode    uint32
	Position uint32
	InUse    bool
}

// SignalEntry is one of a PCB's 5 signal table rows.
type SignalEntry struct {
	Handler uintptr // KILL, IGNORE, or a user handler address.
	Pending bool
	Masked  bool
}

const (
	// SigKill and SigIgnore are the two sentinel handler values; any
	// other value names a user-installed handler address.
	SigKill    uintptr = 0
	SigIgnore  uintptr = 1
	SigNoValue uintptr = ^uintptr(0)
)

// PCB is the per-process control block of §3.
type PCB struct {
	Pid      int
	ParentID int // NoParent for a base shell.
	Terminal int // owning terminal, 0..2 (implementation bookkeeping).

	Args [ArgsMaxLen]byte
	argN int

	FDs     [NumFDs]FileDescriptor
	Signals [NumSignals]SignalEntry
}

// ArgString returns the saved argument string.
func (p *PCB) ArgString() string {
	return string(p.Args[:p.argN])
}

// SetArgs saves s as the process's argument string, truncated to
// ArgsMaxLen bytes, per the execute() contract of §4.9.
func (p *PCB) SetArgs(s string) {
	if len(s) > ArgsMaxLen {
		s = s[:ArgsMaxLen]
	}
	p.argN = copy(p.Args[:], s)
}

// Table is the fixed-size PCB table and pid allocator.
type Table struct {
	mu    sync.Mutex
	slots [MaxProcesses]*PCB
	used  [MaxProcesses]bool
}

// NewTable constructs an empty process table.
func NewTable() *Table {
	return &Table{}
}

// Allocate reserves the lowest-numbered free pid and installs a fresh
// PCB for it, or ErrNoFreeProcess if the bitmap of size
// MaxProcesses is full.
func (t *Table) Allocate(parentID, terminal int) (*PCB, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for pid := 0; pid < MaxProcesses; pid++ {
		if !t.used[pid] {
			t.used[pid] = true
			p := &PCB{Pid: pid, ParentID: parentID, Terminal: terminal}
			for i := range p.Signals {
				p.Signals[i] = DefaultSignal(i)
			}
			t.slots[pid] = p
			return p, nil
		}
	}
	return nil, ErrNoFreeProcess
}

// Free clears pid's bitmap slot, per §4.8.
func (t *Table) Free(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used[pid] = false
	t.slots[pid] = nil
}

// Get returns the PCB for pid, or nil if unallocated.
func (t *Table) Get(pid int) *PCB {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots[pid]
}

// InUse reports whether pid is currently allocated.
func (t *Table) InUse(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used[pid]
}

// DefaultSignal reports the default action of §4.7 for sig: kill for
// signals 0-2, ignore for 3-4.
func DefaultSignal(sig int) SignalEntry {
	if sig <= 2 {
		return SignalEntry{Handler: SigKill}
	}
	return SignalEntry{Handler: SigIgnore}
}

// OpenFD installs ops as descriptor fd and marks it in use; execute
// uses it for descriptors 0 and 1 (terminal input/output), per §4.7.
func (p *PCB) OpenFD(fd int, ops FileOps, inode uint32) {
	p.FDs[fd] = FileDescriptor{Ops: ops, Inode: inode, InUse: true}
}

// AllocFD finds the lowest free descriptor at index >= 2, per §4.9
// open()'s contract.
func (p *PCB) AllocFD() (int, error) {
	for i := 2; i < NumFDs; i++ {
		if !p.FDs[i].InUse {
			return i, nil
		}
	}
	return 0, ErrFDInUse
}
