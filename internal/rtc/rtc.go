/*
kos - Virtualized per-terminal real-time clock driver.

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

// Package rtc models the real-time clock of §4 as a single hardware
// source ticking at a fixed base frequency, virtualized per terminal
// at a user-settable divisor. Open-question decision (§9, recorded in
// DESIGN.md): RTC_open resets the owning terminal's shared frequency
// to the 2 Hz default, matching the source's literal per-terminal
// reinitialization rather than per-process isolation.
package rtc

import (
	"errors"

	"github.com/rcornwell/kos/internal/idt"
	"github.com/rcornwell/kos/internal/pic"
	"github.com/rcornwell/kos/internal/ports"
)

const (
	BaseHz     = 1024 // fastest rate the hardware can virtualize down from.
	DefaultHz  = 2
	MinHz      = 2
	MaxHz      = 1024
	irqLine    = 8
	numTerminals = 3
)

var ErrInvalidFrequency = errors.New("rtc: frequency must be a power of two in [2,1024]")

type terminalClock struct {
	freqHz  int
	counter int // hardware ticks accumulated toward the next virtual tick.
	pending int // virtual ticks delivered and not yet consumed by Read.
}

var clocks [numTerminals]terminalClock

// Init arms the hardware rate and registers the IRQ8 trampoline.
func Init() {
	for t := range clocks {
		clocks[t] = terminalClock{freqHz: DefaultHz}
	}
	ports.Out8(ports.RTCIndex, 0x0A)
	idt.SetIRQHandler(irqLine, func() {
		tick()
		pic.EOI(irqLine)
	})
}

// Enable unmasks IRQ8.
func Enable() {
	pic.Enable(irqLine)
}

func tick() {
	for t := range clocks {
		c := &clocks[t]
		c.counter++
		if c.counter >= BaseHz/c.freqHz {
			c.counter = 0
			c.pending++
		}
	}
}

// Fire manually delivers one hardware RTC interrupt (software-stepped
// run loop and tests stand-in for the real periodic source).
func Fire() {
	idt.Dispatch(idt.IRQBase + irqLine)
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// Open resets terminal t's virtualized frequency to the 2 Hz default
// and clears any pending virtual ticks, per the Open Question
// decision above.
func Open(t int) {
	clocks[t] = terminalClock{freqHz: DefaultHz}
}

// SetFrequency is the device side of RTC write(): it sets terminal t's
// virtualized frequency to hz, which must be a power of two in
// [2,1024]. Decoding the write buffer is left to the caller.
func SetFrequency(t int, hz int) error {
	if hz < MinHz || hz > MaxHz || !isPowerOfTwo(hz) {
		return ErrInvalidFrequency
	}
	clocks[t].freqHz = hz
	clocks[t].counter = 0
	return nil
}

// Poll implements the busy-poll side of RTC read(): it reports whether
// n virtual ticks have elapsed since the last successful Poll, and if
// so consumes them. The syscall layer calls this in a loop with
// interrupts enabled, per §5.
func Poll(t int, n int) bool {
	if clocks[t].pending < n {
		return false
	}
	clocks[t].pending -= n
	return true
}
