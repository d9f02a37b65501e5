/*
kos - Built-in user programs loaded from the filesystem image.

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

// Package programs supplies the handful of user programs the §8
// end-to-end scenarios name: shell, ls, cat, testprint. A real kernel
// loads these from the filesystem image and jumps to their ELF entry
// point; a software model instead registers each by name as a
// syscall.Program closure, while elfimage and fsimage are still used
// to validate that the name exists as an executable entry before the
// closure runs (see Registry).
package programs

import (
	"runtime"
	"strings"

	"github.com/rcornwell/kos/internal/elfimage"
	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/syscall"
)

// Registry builds the name->Program table for every built-in whose
// name also exists as a regular file in img, so execute() of an
// unknown name still fails exactly as §4.9 specifies. Built-ins whose
// backing file carries a valid elfimage header are preferred; a
// present-but-malformed executable is dropped from the table so
// Execute correctly reports -1 for it.
func Registry(img *fsimage.Image) map[string]syscall.Program {
	builtins := map[string]syscall.Program{
		"shell":     Shell,
		"ls":        Ls,
		"cat":       Cat,
		"testprint": TestPrint,
	}
	reg := make(map[string]syscall.Program, len(builtins))
	for name, prog := range builtins {
		entry, err := img.LookupByName(name)
		if err != nil || entry.Type != fsimage.TypeRegular {
			continue
		}
		buf := make([]byte, 32)
		n, err := img.ReadData(entry.Inode, 0, buf)
		if err != nil || n < 32 {
			continue
		}
		if _, err := elfimage.EntryPoint(buf[:n]); err != nil {
			continue
		}
		reg[name] = prog
	}
	return reg
}

// Shell is the interactive command loop of §8 scenario 1: prompt,
// read a line, execute it, repeat. "exit" halts the shell itself,
// which the scheduler immediately relaunches on that terminal.
func Shell(ctx *syscall.Context) int32 {
	k := ctx.K
	for {
		k.Write(ctx, 1, []byte("> "))
		line := readLine(ctx)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return 0
		}
		status := k.Execute(ctx, line)
		if status < 0 {
			k.Write(ctx, 1, []byte(line+": command not found\n"))
		}
	}
}

// Ls lists every filesystem entry's name, one per line, via dir_read.
func Ls(ctx *syscall.Context) int32 {
	k := ctx.K
	fd := k.Open(ctx, ".")
	if fd < 0 {
		return -1
	}
	defer k.Close(ctx, int(fd))
	buf := make([]byte, fsimage.NameLen)
	for {
		n := k.Read(ctx, int(fd), buf)
		if n <= 0 {
			return 0
		}
		name := strings.TrimRight(string(buf[:n]), "\x00")
		k.Write(ctx, 1, []byte(name+"\n"))
	}
}

// Cat reads its sole argument as a filename and writes its entire
// contents to terminal output.
func Cat(ctx *syscall.Context) int32 {
	k := ctx.K
	name := ctx.PCB.ArgString()
	if name == "" {
		k.Write(ctx, 1, []byte("cat: missing filename\n"))
		return -1
	}
	fd := k.Open(ctx, name)
	if fd < 0 {
		k.Write(ctx, 1, []byte("cat: "+name+": not found\n"))
		return -1
	}
	defer k.Close(ctx, int(fd))
	buf := make([]byte, 512)
	for {
		n := k.Read(ctx, int(fd), buf)
		if n <= 0 {
			return 0
		}
		k.Write(ctx, 1, buf[:n])
	}
}

// TestPrint writes a fixed diagnostic line, used by the test-harness
// scenario of §8 to confirm execute()/write() round-trip correctly.
func TestPrint(ctx *syscall.Context) int32 {
	ctx.K.Write(ctx, 1, []byte("testprint ok\n"))
	return 0
}

// readLine blocks on fd 0 until a full line is available, per the
// line-buffered terminal read contract of §4.5.
func readLine(ctx *syscall.Context) string {
	buf := make([]byte, 128)
	for {
		n := ctx.K.Read(ctx, 0, buf)
		if n > 0 {
			return strings.TrimRight(string(buf[:n]), "\n")
		}
		runtime.Gosched()
	}
}
