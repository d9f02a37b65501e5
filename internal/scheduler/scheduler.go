/*
kos - Round-robin scheduler over three terminal slots.

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

// Package scheduler is the 100 Hz round-robin dispatcher of §4.4: three
// terminal slots, no priority, no preemption other than the timer
// tick. A hardware scheduler preempts mid-instruction; a software
// model has no instructions to interrupt between, so each terminal
// instead runs its own goroutine that blocks synchronously inside
// Kernel.Execute's parent/child relationship — Go's own scheduler
// supplies the genuine concurrency across terminals that §5 requires,
// while Tick keeps the active-terminal bookkeeping that the original
// tick handler owned. An empty slot's shell is relaunched by that
// terminal's own goroutine (see runTerminal), not by Tick.
package scheduler

import (
	"sync"

	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/process"
	"github.com/rcornwell/kos/internal/syscall"
	"github.com/rcornwell/kos/internal/video"
)

const NumTerminals = 3

// Scheduler owns the three terminal slots and the kernel they dispatch
// syscalls through.
type Scheduler struct {
	mu      sync.Mutex
	Kernel  *syscall.Kernel
	running [NumTerminals]bool
	halted  bool
	current int
}

// New builds a scheduler over an already-constructed syscall kernel.
func New(k *syscall.Kernel) *Scheduler {
	return &Scheduler{Kernel: k}
}

// Start launches all three terminals' base shells as independent
// goroutines and blocks until every one of them returns (which, per
// §4.8, only happens if Stop tears the run down — a healthy base
// shell never halts for good, it is immediately relaunched).
func (s *Scheduler) Start() {
	var wg sync.WaitGroup
	for t := 0; t < NumTerminals; t++ {
		wg.Add(1)
		go func(term int) {
			defer wg.Done()
			s.runTerminal(term)
		}(t)
	}
	wg.Wait()
}

func (s *Scheduler) runTerminal(term int) {
	if s.stopped() {
		return
	}
	s.setRunning(term, true)
	defer s.setRunning(term, false)
	for s.isRunning(term) && !s.stopped() {
		s.Kernel.SpawnBase(term)
		// A base shell halting is §4.8's "idle slot": relaunch
		// immediately rather than waiting for the next tick, since a
		// Go goroutine has no notion of an idle CPU to hand off.
	}
}

func (s *Scheduler) setRunning(term int, v bool) {
	s.mu.Lock()
	s.running[term] = v
	s.mu.Unlock()
}

func (s *Scheduler) isRunning(term int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[term]
}

// Stop marks every terminal slot as no longer runnable, permanently:
// a Scheduler that has been stopped will refuse to start new terminal
// loops even if Start is called again afterward.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
	for t := range s.running {
		s.running[t] = false
	}
}

func (s *Scheduler) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Tick is the IRQ0 handler's body, run once per 100 Hz timer
// interrupt: it advances which terminal is "current" and re-applies
// that terminal's actual running process's page table and foreground
// framebuffer, mirroring the process-switch side effects of §4.1/§4.4.
// It does not itself run any process code: each terminal's goroutine
// (see Start) already blocks synchronously through its own process's
// call chain, so the only process-switch side effects left for a
// timer tick to perform are the ones a process's own execution doesn't
// drive itself — which terminal's page table is active and which
// terminal's framebuffer is visible.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.current = (s.current + 1) % NumTerminals
	term := s.current
	s.mu.Unlock()

	if pid := s.Kernel.CurrentPid(term); pid != process.NoParent {
		paging.ActivateProcess(paging.FrameForProcess(int(pid)))
	}
	if video.Foreground() != term {
		video.SwitchForeground(term)
	}
}

// CurrentTerminal reports the terminal Tick most recently rotated to,
// for the debug console's "term"/"regs" commands.
func (s *Scheduler) CurrentTerminal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
