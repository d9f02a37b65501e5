/*
kos - Programmable interval timer driver.

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

// Package pit programs the periodic interval timer at 100 Hz (§4.4):
// divisor 11932 (0x2E9C) written low byte then high byte to channel 0,
// and invokes the scheduler's tick handler through the IDT's IRQ0
// vector once the controller is armed.
package pit

import (
	"github.com/rcornwell/kos/internal/idt"
	"github.com/rcornwell/kos/internal/pic"
	"github.com/rcornwell/kos/internal/ports"
)

const (
	Divisor100Hz = 11932 // 0x2E9C, per §6.
	irqLine      = 0

	modeCommand = 0x36 // channel 0, lobyte/hibyte, mode 3 (square wave).
)

var ticks uint64

// Init programs the PIT for the 100 Hz tick and registers onTick as
// the IRQ0 trampoline. It does not unmask the line; the boot sequence
// does that once the scheduler is ready to receive ticks.
func Init(onTick func()) {
	ports.Out8(ports.PITCommand, modeCommand)
	ports.Out8(ports.PITChannel0, uint8(Divisor100Hz&0xff))
	ports.Out8(ports.PITChannel0, uint8(Divisor100Hz>>8))

	idt.SetIRQHandler(irqLine, func() {
		ticks++
		onTick()
		pic.EOI(irqLine)
	})
}

// Enable unmasks IRQ0, starting delivery of ticks.
func Enable() {
	pic.Enable(irqLine)
}

// Fire manually delivers one tick, standing in for the hardware
// interrupt in the software-stepped run loop and in tests.
func Fire() {
	idt.Dispatch(idt.IRQBase + irqLine)
}

// Ticks returns the number of ticks delivered since boot.
func Ticks() uint64 {
	return ticks
}
