/*
kos - Signal delivery.

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

// Package signal delivers the 5 per-process signals of §4.7 against a
// process.PCB's signal table. There is no hardware stack to rewrite in
// a software model, so delivery is expressed as an explicit saved/
// restored mask rather than a return-address patch — sigreturn()
// restores exactly what Deliver saved, which is the part of the
// original mechanism that is actually observable.
package signal

import "github.com/rcornwell/kos/internal/process"

const (
	DIE      = 0
	SEGFAULT = 1
	INTERRUPT = 2
	ALARM    = 3
	USER1    = 4
)

// Action describes what Deliver decided to do with a pending signal.
type Action int

const (
	ActionNone Action = iota
	ActionKill
	ActionIgnore
	ActionHandler
)

// Raise marks sig pending on p, per set_handler()'s delivery path.
// A masked signal stays pending until unmasked.
func Raise(p *process.PCB, sig int) {
	if sig < 0 || sig >= process.NumSignals {
		return
	}
	p.Signals[sig].Pending = true
}

// SetHandler installs handler as sig's action, implementing the
// set_handler syscall of §4.9. A NULL handler (0) restores sig's own
// default action rather than being stored literally — process.SigKill
// is both that sentinel and signal 0-2's actual default, so a literal
// store would turn ALARM/USER1's default IGNORE into KILL.
func SetHandler(p *process.PCB, sig int, handler uintptr) int32 {
	if sig < 0 || sig >= process.NumSignals {
		return -1
	}
	if handler == process.SigKill {
		p.Signals[sig] = process.DefaultSignal(sig)
		return 0
	}
	p.Signals[sig].Handler = handler
	return 0
}

// savedMask is what sigreturn restores: which signals were masked
// before Deliver ran.
type savedMask [process.NumSignals]bool

// Deliver scans p's signal table in fixed priority order (0 first) and
// returns the first pending, unmasked signal's action along with the
// handler address for ActionHandler and a token to pass to Restore
// (sigreturn). While a handler runs, all lower or equal-priority
// signals are masked, matching the "no nested delivery of the same or
// lower-priority signal" rule of §4.7.
func Deliver(p *process.PCB) (sig int, action Action, handler uintptr, saved interface{}) {
	for i := 0; i < process.NumSignals; i++ {
		entry := &p.Signals[i]
		if !entry.Pending || entry.Masked {
			continue
		}
		entry.Pending = false

		var mask savedMask
		for j := i; j < process.NumSignals; j++ {
			mask[j] = p.Signals[j].Masked
			p.Signals[j].Masked = true
		}

		switch entry.Handler {
		case process.SigKill:
			return i, ActionKill, entry.Handler, mask
		case process.SigIgnore:
			Restore(p, mask)
			return i, ActionIgnore, entry.Handler, mask
		default:
			return i, ActionHandler, entry.Handler, mask
		}
	}
	return -1, ActionNone, 0, nil
}

// Restore implements sigreturn(): it undoes the masking Deliver
// applied for the signal whose handler is finishing.
func Restore(p *process.PCB, saved interface{}) int32 {
	mask, ok := saved.(savedMask)
	if !ok {
		return -1
	}
	for i := range mask {
		p.Signals[i].Masked = mask[i]
	}
	return 0
}
