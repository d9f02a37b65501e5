/*
kos - Boot sequence and top-level run loop.

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

// Package kernel wires every subsystem package into the boot sequence
// of §4.11: program the PIC, install the IDT, build paging, bring up
// video/keyboard/RTC, load the filesystem image, register the built-in
// programs, then hand control to the scheduler. Start/Stop follow the
// run/shutdown shape of the teacher's emulator core loop — a
// WaitGroup-tracked goroutine, a done channel, and a bounded wait on
// shutdown — adapted from a single CPU loop to a hardware-tick pump
// plus the scheduler's per-terminal goroutines.
package kernel

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rcornwell/kos/config/bootconfig"
	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/idt"
	"github.com/rcornwell/kos/internal/keyboard"
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/pic"
	"github.com/rcornwell/kos/internal/pit"
	"github.com/rcornwell/kos/internal/programs"
	"github.com/rcornwell/kos/internal/rtc"
	"github.com/rcornwell/kos/internal/scheduler"
	"github.com/rcornwell/kos/internal/syscall"
	"github.com/rcornwell/kos/internal/video"
	"github.com/rcornwell/kos/util/logger"
)

// kernelImageFrame is the physical frame (by address) the kernel's own
// 4 MiB large page occupies, per paging's frame numbering.
const kernelImageFrame = paging.LargePageSize

// Kernel is the fully wired system: loaded image, syscall dispatcher,
// scheduler, and the goroutine/timer plumbing that drives them.
type Kernel struct {
	cfg     bootconfig.Config
	Image   *fsimage.Image
	Syscall *syscall.Kernel
	Sched   *scheduler.Scheduler

	logFile *os.File
	log     *slog.Logger

	wg   sync.WaitGroup
	done chan struct{}
}

// New loads the filesystem image named by cfg and wires the syscall
// and scheduler layers over it, without touching any hardware state.
// Call Boot before Start.
func New(cfg bootconfig.Config) (*Kernel, error) {
	image, err := fsimage.Open(cfg.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("kernel: loading filesystem image: %w", err)
	}

	progs := programs.Registry(image)
	sk := syscall.NewKernel(image, progs)
	sch := scheduler.New(sk)

	k := &Kernel{
		cfg:     cfg,
		Image:   image,
		Syscall: sk,
		Sched:   sch,
		done:    make(chan struct{}),
	}
	if err := k.setupLogging(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kernel) setupLogging() error {
	var level slog.Level
	switch k.cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer
	if k.cfg.LogPath != "" {
		f, err := os.OpenFile(k.cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("kernel: opening log file: %w", err)
		}
		k.logFile = f
		out = f
	}

	debug := k.cfg.Debug
	handler := logger.NewHandler(out, &slog.HandlerOptions{Level: level}, &debug)
	k.log = slog.New(handler)
	return nil
}

// Boot programs the interrupt controller, installs the IDT, builds
// paging, and brings up every device driver, per §4.11. It does not
// start the scheduler; call Start for that.
func (k *Kernel) Boot() {
	pic.Init()
	idt.Load(k.handleException)
	paging.Init(kernelImageFrame)
	video.Init()
	keyboard.Init()
	rtc.Init()
	if k.cfg.RTCHz != 0 {
		for t := 0; t < scheduler.NumTerminals; t++ {
			if err := rtc.SetFrequency(t, k.cfg.RTCHz); err != nil {
				k.log.Warn("ignoring invalid boot rtchz", "value", k.cfg.RTCHz, "error", err.Error())
				break
			}
		}
	}
	pit.Init(k.Sched.Tick)

	keyboard.Enable()
	rtc.Enable()
	pit.Enable()

	k.log.Info("boot sequence complete", "image", k.cfg.ImagePath, "programs", len(k.Syscall.Programs))
}

func (k *Kernel) handleException(vector int) {
	k.log.Error("unhandled cpu exception", "vector", vector)
}

// Start launches the scheduler's three terminal goroutines and the
// real-time pumps that stand in for the PIT and RTC hardware sources,
// then blocks until Stop is called.
func (k *Kernel) Start() {
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		k.Sched.Start()
	}()

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		k.runHardwareClock()
	}()

	k.log.Info("scheduler running")
	<-k.done
}

// runHardwareClock fires the PIT at 100 Hz and the RTC at its fixed
// 1024 Hz hardware rate, the real-time equivalents of the periodic
// interrupts a physical machine generates on its own.
func (k *Kernel) runHardwareClock() {
	pitTicker := time.NewTicker(time.Second / 100)
	rtcTicker := time.NewTicker(time.Second / time.Duration(rtc.BaseHz))
	defer pitTicker.Stop()
	defer rtcTicker.Stop()
	for {
		select {
		case <-k.done:
			return
		case <-pitTicker.C:
			pit.Fire()
		case <-rtcTicker.C:
			rtc.Fire()
		}
	}
}

// Stop signals shutdown and waits up to a second for every goroutine
// to notice, matching the bounded shutdown wait of the teacher's
// emulator core.
func (k *Kernel) Stop() {
	k.Sched.Stop()
	close(k.done)

	waited := make(chan struct{})
	go func() {
		k.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(time.Second):
		k.log.Warn("timed out waiting for kernel shutdown")
	}

	if k.logFile != nil {
		k.logFile.Close()
	}
}

// Log exposes the kernel's configured logger for callers that need to
// emit structured log lines outside the boot sequence (the debug
// console, for instance).
func (k *Kernel) Log() *slog.Logger {
	return k.log
}
