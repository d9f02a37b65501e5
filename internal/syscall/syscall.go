/*
kos - The ten-syscall user/kernel boundary.

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

// Package syscall implements the ten syscalls of §4.9: halt, execute,
// read, write, open, close, getargs, vidmap, set_handler, sigreturn.
// A real trap gate hands control to ring 0 at a fixed vector; here
// Kernel's methods are that vector, called directly by a program's
// Program closure, which is the in-process-call equivalent available
// to a software model (see the runtime-model note at the top of
// SPEC_FULL.md).
package syscall

import (
	"strings"
	"sync"

	"github.com/rcornwell/kos/internal/fdops"
	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/idt"
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/process"
	"github.com/rcornwell/kos/internal/signal"
	"github.com/rcornwell/kos/internal/video"
)

// Program is one loadable executable's entry point. Its return value
// is this process's halt() status; returning from the entry point is
// the only way a program halts (see Halt).
type Program func(ctx *Context) int32

// Context is what a running program's entry point receives: its own
// PCB and the kernel it calls back into for every syscall.
type Context struct {
	PCB *process.PCB
	K   *Kernel
}

// numTerminals mirrors scheduler.NumTerminals; duplicated here rather
// than imported since scheduler itself depends on this package.
const numTerminals = 3

// Kernel is the syscall dispatch target: the process table, loaded
// filesystem image, and the registry of program entry points that
// stand in for machine code loaded from an executable (see package
// programs on why a software model cannot jump to raw entry bytes).
type Kernel struct {
	mu       sync.Mutex // the "interrupts disabled" critical section, §5.
	Table    *process.Table
	Image    *fsimage.Image
	Programs map[string]Program
	running  [numTerminals]int32 // pid currently executing on each terminal, or -1 when idle.
}

// NewKernel builds a syscall dispatcher over an already-open
// filesystem image and the built-in program registry.
func NewKernel(image *fsimage.Image, programs map[string]Program) *Kernel {
	k := &Kernel{
		Table:    process.NewTable(),
		Image:    image,
		Programs: programs,
	}
	for t := range k.running {
		k.running[t] = process.NoParent
	}
	return k
}

// CurrentPid reports the pid currently executing on terminal t, or
// process.NoParent if the slot is between programs, for the
// scheduler's per-tick process switch (§4.4).
func (k *Kernel) CurrentPid(terminal int) int32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running[terminal]
}

// SpawnBase launches a parentless base shell on terminal t: a fresh
// PCB with no parent, descriptors 0/1 bound to that terminal, and the
// "shell" program run to completion. Returns the exit status if the
// base shell itself halts (§4.8: the kernel immediately relaunches a
// fresh one when that happens, handled by the scheduler, not here).
func (k *Kernel) SpawnBase(t int) (int32, error) {
	return k.execute(nil, t, "shell")
}

// Execute implements the execute() syscall (§4.9): parses the command
// line's program name and argument string, loads and runs it, and
// blocks until it halts, returning its exit status, or -1 if the
// program does not exist or the process table is full.
func (k *Kernel) Execute(ctx *Context, command string) int32 {
	status, err := k.execute(ctx.PCB, ctx.PCB.Terminal, command)
	if err != nil {
		return -1
	}
	return status
}

func (k *Kernel) execute(parent *process.PCB, terminal int, command string) (int32, error) {
	name, args := splitCommand(command)
	prog, ok := k.Programs[name]
	if !ok {
		return -1, errUnknownCommand
	}

	parentID := process.NoParent
	if parent != nil {
		parentID = parent.Pid
	}

	k.mu.Lock()
	child, err := k.Table.Allocate(parentID, terminal)
	if err != nil {
		k.mu.Unlock()
		return -1, err
	}
	child.OpenFD(0, fdops.TerminalIn{}, 0)
	child.OpenFD(1, fdops.TerminalOut{}, 0)
	child.SetArgs(args)
	frame := paging.FrameForProcess(child.Pid)
	paging.ActivateProcess(frame)
	k.running[terminal] = int32(child.Pid)
	k.mu.Unlock()

	status := k.runProgram(prog, child)

	k.mu.Lock()
	k.running[terminal] = process.NoParent
	k.Table.Free(child.Pid)
	k.mu.Unlock()

	return status, nil
}

// statusFaulted is the halt status a faulting program reports (§8
// scenario 6: divide-by-zero and friends), chosen to be outside the
// int8 status range a well-behaved halt() call would ever pass.
const statusFaulted = 256

// runProgram runs prog to completion, recovering a panic the way a
// real CPU exception would trap into the kernel instead of crashing
// it: the program's own fault (e.g. an integer divide by zero) routes
// through the installed exception trampoline and is reported to the
// parent as statusFaulted rather than taking the whole kernel down
// with it. Either way, halt()'s "close every open descriptor" (§4.8)
// runs on the way out.
func (k *Kernel) runProgram(prog Program, child *process.PCB) (status int32) {
	defer func() {
		if r := recover(); r != nil {
			idt.Dispatch(idt.DivideErrorVector)
			status = statusFaulted
		}
		closeDescriptors(child)
	}()
	return prog(&Context{PCB: child, K: k})
}

// closeDescriptors implements halt()'s descriptor-table teardown: every
// in-use descriptor, including the terminal's own 0/1, is closed and
// cleared.
func closeDescriptors(p *process.PCB) {
	for i := range p.FDs {
		d := &p.FDs[i]
		if !d.InUse {
			continue
		}
		d.Ops.Close(p, d)
		*d = process.FileDescriptor{}
	}
}

var errUnknownCommand = &commandError{"syscall: no such program"}

type commandError struct{ msg string }

func (e *commandError) Error() string { return e.msg }

func splitCommand(command string) (name, args string) {
	command = strings.TrimSpace(command)
	idx := strings.IndexByte(command, ' ')
	if idx < 0 {
		return command, ""
	}
	return command[:idx], strings.TrimSpace(command[idx+1:])
}

// Halt implements the halt() syscall: it is the value a program
// returns from its entry point (see Program), so Halt itself is only
// a documented convenience a program can call before returning the
// same status, keeping call sites readable.
func (k *Kernel) Halt(ctx *Context, status int32) int32 {
	return status
}

// Read implements read(fd, buf) dispatching through descriptor fd's
// operations vector.
func (k *Kernel) Read(ctx *Context, fd int, buf []byte) int32 {
	d, ok := k.descriptor(ctx.PCB, fd)
	if !ok {
		return -1
	}
	return d.Ops.Read(ctx.PCB, d, buf)
}

// Write implements write(fd, buf).
func (k *Kernel) Write(ctx *Context, fd int, buf []byte) int32 {
	d, ok := k.descriptor(ctx.PCB, fd)
	if !ok {
		return -1
	}
	return d.Ops.Write(ctx.PCB, d, buf)
}

// Open implements open(name): directory name "." opens the
// filesystem's directory listing, "rtc" opens the real-time clock,
// anything else is looked up as a regular file.
func (k *Kernel) Open(ctx *Context, name string) int32 {
	fdNum, err := ctx.PCB.AllocFD()
	if err != nil {
		return -1
	}
	d := &ctx.PCB.FDs[fdNum]

	var ops process.FileOps
	switch {
	case name == ".":
		ops = fdops.Directory{Image: k.Image}
	case name == "rtc":
		ops = fdops.RTC{}
	default:
		ops = fdops.RegularFile{Image: k.Image}
	}

	*d = process.FileDescriptor{Ops: ops}
	if rc := ops.Open(ctx.PCB, d, name); rc != 0 {
		d.InUse = false
		return -1
	}
	d.InUse = true
	return int32(fdNum)
}

// Close implements close(fd): descriptors 0 and 1 cannot be closed by
// the user, per §4.9.
func (k *Kernel) Close(ctx *Context, fd int) int32 {
	if fd == 0 || fd == 1 {
		return -1
	}
	d, ok := k.descriptor(ctx.PCB, fd)
	if !ok {
		return -1
	}
	rc := d.Ops.Close(ctx.PCB, d)
	*d = process.FileDescriptor{}
	if rc != 0 {
		return -1
	}
	return 0
}

// GetArgs implements getargs(buf): copies the saved argument string
// into buf, NUL-terminated, failing if it does not fit.
func (k *Kernel) GetArgs(ctx *Context, buf []byte) int32 {
	args := ctx.PCB.ArgString()
	if len(args)+1 > len(buf) {
		return -1
	}
	n := copy(buf, args)
	buf[n] = 0
	return 0
}

// Vidmap implements vidmap(): installs the fixed user video mapping
// for the current foreground terminal (whichever terminal the caller
// runs on) and writes its virtual address,
// little-endian, through buf (the caller's *screen_start), or -1 if
// the output pointer itself is outside user space, the same
// write-through-a-validated-pointer shape GetArgs uses for buf.
func (k *Kernel) Vidmap(ctx *Context, outAddr uint32, buf []byte) int32 {
	if !paging.InUserSpace(outAddr, 4) || len(buf) < 4 {
		return -1
	}
	frame := video.Foreground()
	addr := paging.Vidmap(uint32(frame))
	buf[0] = byte(addr)
	buf[1] = byte(addr >> 8)
	buf[2] = byte(addr >> 16)
	buf[3] = byte(addr >> 24)
	return 0
}

// SetHandler implements set_handler(signum, handler).
func (k *Kernel) SetHandler(ctx *Context, sig int, handler uintptr) int32 {
	return signal.SetHandler(ctx.PCB, sig, handler)
}

// SigReturn implements sigreturn(), restoring the mask Deliver saved.
func (k *Kernel) SigReturn(ctx *Context, saved interface{}) int32 {
	return signal.Restore(ctx.PCB, saved)
}

func (k *Kernel) descriptor(p *process.PCB, fd int) (*process.FileDescriptor, bool) {
	if fd < 0 || fd >= process.NumFDs || !p.FDs[fd].InUse {
		return nil, false
	}
	return &p.FDs[fd], true
}
