/*
 * kos - Interactive debug console.
 *
 * Copyright 2026, kos contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package console is the operator-facing debug REPL: ps, term, mem,
// regs and quit, read with github.com/peterh/liner exactly the way the
// teacher's command reader drives its own simulator console, just
// against the kernel's process table, scheduler and page directory
// instead of CPU registers and channel state.
package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/kos/internal/kernel"
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/pit"
	"github.com/rcornwell/kos/internal/process"
)

var commandNames = []string{"ps", "term", "mem", "regs", "help", "quit"}

// Run drives the console until the operator quits or aborts (ctrl-D /
// ctrl-C), mirroring ConsoleReader's prompt/execute/history loop.
func Run(k *kernel.Kernel) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return completeCmd(partial)
	})

	for {
		command, err := line.Prompt("kos> ")
		if err == nil {
			line.AppendHistory(command)
			quit, cmdErr := dispatch(k, command)
			if cmdErr != nil {
				fmt.Println("Error: " + cmdErr.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		k.Log().Error("console: error reading line", "error", err.Error())
		return
	}
}

func completeCmd(partial string) []string {
	var out []string
	for _, name := range commandNames {
		if strings.HasPrefix(name, partial) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// dispatch executes one command line, returning whether the console
// should exit.
func dispatch(k *kernel.Kernel, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Println(strings.Join(commandNames, " "))
		return false, nil
	case "ps":
		return false, cmdPS(k)
	case "term":
		return false, cmdTerm(k, fields[1:])
	case "mem":
		return false, cmdMem(fields[1:])
	case "regs":
		return false, cmdRegs(k)
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

// cmdPS lists every allocated process by pid, the terminal it owns and
// its parent pid, reading the PCB table directly rather than through a
// syscall (the console runs with implicit supervisor privilege).
func cmdPS(k *kernel.Kernel) error {
	fmt.Printf("%-4s %-4s %-6s\n", "PID", "PPID", "TERM")
	for pid := 0; pid < process.MaxProcesses; pid++ {
		p := k.Syscall.Table.Get(pid)
		if p == nil {
			continue
		}
		fmt.Printf("%-4d %-4d %-6d\n", p.Pid, p.ParentID, p.Terminal)
	}
	return nil
}

// cmdTerm reports the scheduler's currently tracked active terminal.
// It takes no arguments and does not switch terminals; any argument is
// an error.
func cmdTerm(k *kernel.Kernel, args []string) error {
	if len(args) == 0 {
		fmt.Printf("active terminal: %d\n", k.Sched.CurrentTerminal())
		return nil
	}
	return fmt.Errorf("term: unexpected argument %q", args[0])
}

// cmdMem reports which physical frame a process id's user image is
// mapped to, exercising the same formula the scheduler's process
// switch uses.
func cmdMem(args []string) error {
	if len(args) != 1 {
		return errors.New("mem: usage: mem <pid>")
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("mem: invalid pid %q", args[0])
	}
	frame := paging.FrameForProcess(pid)
	fmt.Printf("pid %d -> frame %d (virtual base %#x)\n", pid, frame, paging.UserImageBase)
	return nil
}

// cmdRegs reports the PIT tick count, the only "register" a software
// model has nothing better to substitute for a real CPU's register
// file dump.
func cmdRegs(k *kernel.Kernel) error {
	fmt.Printf("pit ticks: %d\n", pit.Ticks())
	fmt.Printf("scheduler active terminal: %d\n", k.Sched.CurrentTerminal())
	return nil
}
