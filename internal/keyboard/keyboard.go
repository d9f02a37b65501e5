/*
kos - PS/2 keyboard driver: scan-code decode, modifiers, line buffers.

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

// Package keyboard decodes PS/2 set-1 scan codes per §4.5: modifier
// tracking (shift/control/alt/caps-lock), alt+F1..F3 terminal
// switching, printable-key translation through plain/shifted/caps
// tables, and appending into the foreground terminal's 128-byte line
// buffer.
package keyboard

import (
	"github.com/rcornwell/kos/internal/idt"
	"github.com/rcornwell/kos/internal/pic"
	"github.com/rcornwell/kos/internal/ports"
	"github.com/rcornwell/kos/internal/video"
)

const (
	irqLine = 1

	lineBufCap = 128 // 127 chars plus newline, per §4.5.

	scLShift    = 0x2A
	scRShift    = 0x36
	scLCtrl     = 0x1D
	scLAlt      = 0x38
	scCapsLock  = 0x3A
	scBackspace = 0x0E
	scEnter     = 0x1C
	scF1        = 0x3B
	scF2        = 0x3C
	scF3        = 0x3D
	scL         = 0x26
	breakBit    = 0x80
)

// LineBuffer is one terminal's keyboard-fed input buffer.
type LineBuffer struct {
	Buf              [lineBufCap]byte
	Len              int
	NewlineDelivered bool
}

var (
	lines [3]LineBuffer

	shift, ctrl, alt, capsLock bool
)

// 58-entry scan-code-to-ASCII tables, indexed by (scancode - 0x02),
// covering the numeric row, both alpha rows and punctuation — the
// keys a PS/2 set-1 keyboard can produce without an extended prefix.
var (
	plain = [58]byte{
		'1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', 0,
		0, 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n',
		0, 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`',
		0, '\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/', 0,
		0, 0, ' ', 0, 0,
	}
	shifted = [58]byte{
		'!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '_', '+', 0,
		0, 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I', 'O', 'P', '{', '}', '\n',
		0, 'A', 'S', 'D', 'F', 'G', 'H', 'J', 'K', 'L', ':', '"', '~',
		0, '|', 'Z', 'X', 'C', 'V', 'B', 'N', 'M', '<', '>', '?', 0,
		0, 0, ' ', 0, 0,
	}
	caps = [58]byte{
		'1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', 0,
		0, 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I', 'O', 'P', '[', ']', '\n',
		0, 'A', 'S', 'D', 'F', 'G', 'H', 'J', 'K', 'L', ';', '\'', '`',
		0, '\\', 'Z', 'X', 'C', 'V', 'B', 'N', 'M', ',', '.', '/', 0,
		0, 0, ' ', 0, 0,
	}
)

// Init resets modifier/line state and registers the IRQ1 trampoline.
func Init() {
	lines = [3]LineBuffer{}
	shift, ctrl, alt, capsLock = false, false, false, false
	idt.SetIRQHandler(irqLine, func() {
		sc := ports.In8(ports.KeyboardData)
		handleScanCode(sc)
		pic.EOI(irqLine)
	})
}

// Enable unmasks IRQ1.
func Enable() {
	pic.Enable(irqLine)
}

// Line returns terminal t's line buffer for inspection/consumption by
// terminal_read.
func Line(t int) *LineBuffer {
	return &lines[t]
}

// InjectScanCode feeds one scan code through the decoder, for tests
// and for an emulator front-end standing in for real PS/2 hardware.
func InjectScanCode(sc byte) {
	handleScanCode(sc)
}

func handleScanCode(sc byte) {
	release := sc&breakBit != 0
	code := sc &^ breakBit

	switch code {
	case scLShift, scRShift:
		shift = !release
		return
	case scLCtrl:
		ctrl = !release
		return
	case scLAlt:
		alt = !release
		return
	case scCapsLock:
		if !release {
			capsLock = !capsLock
		}
		return
	}

	if release {
		return
	}

	if alt {
		switch code {
		case scF1:
			video.SwitchForeground(0)
			return
		case scF2:
			video.SwitchForeground(1)
			return
		case scF3:
			video.SwitchForeground(2)
			return
		}
	}

	fg := video.Foreground()
	line := &lines[fg]

	if ctrl && code == scL {
		video.ClearScreen(fg)
		return
	}

	if code == scBackspace {
		if line.Len > 0 {
			line.Len--
			video.PutChar(fg, '\b')
		}
		return
	}

	ch := translate(code)
	if ch == 0 {
		return
	}
	if code == scEnter {
		ch = '\n'
	}

	if line.Len >= lineBufCap-1 && ch != '\n' {
		return
	}
	if line.Len >= lineBufCap {
		return
	}
	line.Buf[line.Len] = ch
	line.Len++
	video.PutChar(fg, ch)

	if ch == '\n' {
		line.NewlineDelivered = true
	}
}

func translate(code byte) byte {
	idx := int(code) - 0x02
	if idx < 0 || idx >= len(plain) {
		return 0
	}
	switch {
	case capsLock && shift:
		return plain[idx]
	case capsLock:
		return caps[idx]
	case shift:
		return shifted[idx]
	default:
		return plain[idx]
	}
}

// ResetLine clears terminal t's line buffer and delivered flag; called
// by terminal_read once it has consumed a full line.
func ResetLine(t int) {
	lines[t] = LineBuffer{}
}
