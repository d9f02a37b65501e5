/*
kos - Cascaded interrupt controller pair.

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

// Package pic models the cascaded 8259-compatible interrupt controller
// pair described in §4.2: line 2 of the primary cascades the
// secondary, the primary is programmed at vector offset 0x20 and the
// secondary at 0x28, masks gate IRQ lines, and EOI must be issued
// exactly once per hardware interrupt.
package pic

import "github.com/rcornwell/kos/internal/ports"

const (
	PrimaryOffset   = 0x20
	SecondaryOffset = 0x28
	cascadeLine     = 2
	eoiBase         = 0x60
)

type controller struct {
	mask uint8
}

var primary, secondary controller

// Init masks every line on both controllers, then programs the four
// initialization control words (vector offset, cascade topology,
// 8086-compatible mode) the way real firmware would write them to the
// command/data ports.
func Init() {
	primary.mask = 0xff
	secondary.mask = 0xff
	ports.Out8(ports.PICPrimaryData, primary.mask)
	ports.Out8(ports.PICSecondaryData, secondary.mask)

	ports.Out8(ports.PICPrimaryCommand, 0x11)
	ports.Out8(ports.PICPrimaryData, PrimaryOffset)
	ports.Out8(ports.PICPrimaryData, 1<<cascadeLine)
	ports.Out8(ports.PICPrimaryData, 0x01)

	ports.Out8(ports.PICSecondaryCommand, 0x11)
	ports.Out8(ports.PICSecondaryData, SecondaryOffset)
	ports.Out8(ports.PICSecondaryData, cascadeLine)
	ports.Out8(ports.PICSecondaryData, 0x01)

	ports.Out8(ports.PICPrimaryData, primary.mask)
	ports.Out8(ports.PICSecondaryData, secondary.mask)
}

// Enable unmasks IRQ line (0..15).
func Enable(line int) {
	if line < 8 {
		primary.mask &^= 1 << uint(line)
		ports.Out8(ports.PICPrimaryData, primary.mask)
		return
	}
	secondary.mask &^= 1 << uint(line-8)
	ports.Out8(ports.PICSecondaryData, secondary.mask)
}

// Disable masks IRQ line (0..15).
func Disable(line int) {
	if line < 8 {
		primary.mask |= 1 << uint(line)
		ports.Out8(ports.PICPrimaryData, primary.mask)
		return
	}
	secondary.mask |= 1 << uint(line-8)
	ports.Out8(ports.PICSecondaryData, secondary.mask)
}

// Enabled reports whether line is currently unmasked.
func Enabled(line int) bool {
	if line < 8 {
		return primary.mask&(1<<uint(line)) == 0
	}
	return secondary.mask&(1<<uint(line-8)) == 0
}

// EOI acknowledges line, issuing an end-of-interrupt to the owning
// controller and, if the secondary was the source, a matching EOI to
// the primary for the cascade line.
func EOI(line int) {
	if line >= 8 {
		ports.Out8(ports.PICSecondaryCommand, eoiBase|uint8(line%8))
		ports.Out8(ports.PICPrimaryCommand, eoiBase|uint8(cascadeLine))
		return
	}
	ports.Out8(ports.PICPrimaryCommand, eoiBase|uint8(line))
}
