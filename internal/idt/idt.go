/*
kos - Interrupt descriptor table and vector dispatch.

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

// Package idt models the 256-entry interrupt descriptor table of §4.3:
// exception vectors 0x00-0x13, IRQ vectors 0x20-0x2F, and the 0x80
// system-call trap gate (the only entry with user-reachable DPL 3).
// Trampolines are Go closures rather than assembly stubs; the table
// records each gate's kind so dispatch can enforce the same
// privilege rule the real IDT enforces in hardware.
package idt

const (
	GateException = iota
	GateIRQ
	GateSyscall
)

// Trampoline is the high-level handler a gate routes to. For
// exceptions and IRQs it takes no argument; for the syscall gate it is
// invoked by the syscall package directly, so Handler here only needs
// to exist for exceptions/IRQs.
type Trampoline func()

type gate struct {
	present bool
	kind    int
	dpl     int
	handler Trampoline
}

const numVectors = 256

var table [numVectors]gate

// SyscallVector is the well-known trap-gate vector number.
const SyscallVector = 0x80

// DivideErrorVector is the CPU exception a divide-by-zero (or any
// other program fault the syscall layer catches on the program's
// behalf) routes through.
const DivideErrorVector = 0x00

// IRQBase is the vector the primary PIC's line 0 is remapped to.
const IRQBase = 0x20

// Load installs trampolines for every CPU exception (0x00-0x13) and
// marks the syscall gate as a user-reachable (DPL 3) trap gate. IRQ
// trampolines are installed individually via SetIRQHandler as each
// driver initializes.
func Load(exceptionHandler func(vector int)) {
	for v := 0x00; v <= 0x13; v++ {
		vec := v
		table[v] = gate{present: true, kind: GateException, dpl: 0, handler: func() { exceptionHandler(vec) }}
	}
	table[SyscallVector] = gate{present: true, kind: GateSyscall, dpl: 3}
}

// SetIRQHandler installs the trampoline for hardware IRQ line
// (0..15), computing its vector from IRQBase.
func SetIRQHandler(line int, h Trampoline) {
	table[IRQBase+line] = gate{present: true, kind: GateIRQ, dpl: 0, handler: h}
}

// Dispatch invokes the installed trampoline for vector, reporting
// whether a handler was present. Matches the trampoline discipline of
// §4.3: registers are the caller's concern (there are none to save in
// a Go closure), only the routing is modeled here.
func Dispatch(vector int) bool {
	g := table[vector]
	if !g.present || g.handler == nil {
		return false
	}
	g.handler()
	return true
}

// IsUserReachable reports whether vector may be entered via a software
// int from user mode (DPL 3) — true only for the syscall gate.
func IsUserReachable(vector int) bool {
	return table[vector].present && table[vector].dpl == 3
}
