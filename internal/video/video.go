/*
kos - Text-mode framebuffer, cursor and terminal backing stores.

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

// Package video is the typed framebuffer abstraction §9's design notes
// ask for: one visible 80x25 page and three per-terminal backing
// pages, a foreground index, and terminal-switch as swap-and-remap
// rather than raw pointer arithmetic.
package video

import (
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/ports"
)

const (
	Columns    = 80
	Rows       = 25
	cellCount  = Columns * Rows
	numTerms   = 3
	DefaultAttr = 0x07
)

type cell struct {
	ch   byte
	attr byte
}

type page [cellCount]cell

type terminal struct {
	backing   page
	cursorX   int
	cursorY   int
}

var (
	visible    page
	terminals  [numTerms]terminal
	foreground int
)

// Init clears every page and maps terminal 0 as foreground, installing
// the low-memory video mapping described in §4.1.
func Init() {
	visible = page{}
	for i := range terminals {
		terminals[i] = terminal{}
	}
	foreground = 0
	var backupFrames [3]uint32
	for i := range backupFrames {
		backupFrames[i] = uint32(1 + i)
	}
	paging.MapVideo(0, backupFrames)
	setHardwareCursor(0, 0)
}

// Foreground returns the currently foreground terminal id.
func Foreground() int {
	return foreground
}

// CursorPosition returns terminal t's saved cursor.
func CursorPosition(t int) (x, y int) {
	return terminals[t].cursorX, terminals[t].cursorY
}

// Snapshot returns a copy of the 4000-byte (char+attr) page currently
// backing terminal t, for tests and the debug console.
func Snapshot(t int) [cellCount]cell {
	if t == foreground {
		return visible
	}
	return terminals[t].backing
}

// surfaceFor returns the page terminal t is currently rendering into:
// the shared visible page if t is foreground, else its own backing
// store. This is the software equivalent of the page-table alias.
func surfaceFor(t int) *page {
	if t == foreground {
		return &visible
	}
	return &terminals[t].backing
}

// PutChar writes one character at terminal t's cursor, advancing and
// wrapping/scrolling exactly as real VGA text output would, and moves
// the hardware cursor only if t is foreground.
func PutChar(t int, ch byte) {
	term := &terminals[t]
	switch ch {
	case '\n':
		term.cursorX = 0
		term.cursorY++
	case '\b':
		if term.cursorX > 0 {
			term.cursorX--
			writeCell(t, term.cursorX, term.cursorY, ' ')
		}
	default:
		writeCell(t, term.cursorX, term.cursorY, ch)
		term.cursorX++
		if term.cursorX >= Columns {
			term.cursorX = 0
			term.cursorY++
		}
	}
	if term.cursorY >= Rows {
		scroll(t)
		term.cursorY = Rows - 1
	}
	if t == foreground {
		setHardwareCursor(term.cursorX, term.cursorY)
	}
}

func writeCell(t, x, y int, ch byte) {
	s := surfaceFor(t)
	s[y*Columns+x] = cell{ch: ch, attr: DefaultAttr}
}

func scroll(t int) {
	s := surfaceFor(t)
	copy(s[0:(Rows-1)*Columns], s[Columns:Rows*Columns])
	for x := 0; x < Columns; x++ {
		s[(Rows-1)*Columns+x] = cell{ch: ' ', attr: DefaultAttr}
	}
}

// ClearScreen implements control+L: clears terminal t's surface
// without touching its keyboard line buffer, and homes its cursor.
func ClearScreen(t int) {
	s := surfaceFor(t)
	*s = page{}
	for i := range s {
		s[i] = cell{ch: ' ', attr: DefaultAttr}
	}
	terminals[t].cursorX, terminals[t].cursorY = 0, 0
	if t == foreground {
		setHardwareCursor(0, 0)
	}
}

// SwitchForeground implements the alt+F1..F3 hot-key behavior of
// §4.5: swap the currently foreground terminal's backing page with
// the on-screen page via copy, then move the hardware cursor to the
// new foreground terminal's saved cursor.
func SwitchForeground(t int) {
	if t == foreground || t < 0 || t >= numTerms {
		return
	}
	old := foreground
	terminals[old].backing = visible
	visible = terminals[t].backing
	foreground = t
	setHardwareCursor(terminals[t].cursorX, terminals[t].cursorY)
}

func setHardwareCursor(x, y int) {
	pos := uint16(y*Columns + x)
	ports.Out8(ports.VGACRTCIndex, 0x0F)
	ports.Out8(ports.VGACRTCData, uint8(pos&0xff))
	ports.Out8(ports.VGACRTCIndex, 0x0E)
	ports.Out8(ports.VGACRTCData, uint8(pos>>8))
}
