package syscall

import (
	"testing"

	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/process"
	"github.com/rcornwell/kos/internal/signal"
	"github.com/rcornwell/kos/internal/video"
)

func init() {
	paging.Init(paging.LargePageSize)
	video.Init()
}

func emptyImage(t *testing.T) *fsimage.Image {
	t.Helper()
	raw := make([]byte, fsimage.BlockSize)
	img, err := fsimage.FromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestExecuteRunsProgramAndReturnsStatus(t *testing.T) {
	programs := map[string]Program{
		"ok": func(ctx *Context) int32 { return 42 },
	}
	k := NewKernel(emptyImage(t), programs)
	status, err := k.SpawnBase(0)
	_ = status
	_ = err // "shell" isn't registered in this test's program set.

	parent, allocErr := k.Table.Allocate(-1, 0)
	if allocErr != nil {
		t.Fatal(allocErr)
	}
	rc := k.Execute(&Context{PCB: parent, K: k}, "ok")
	if rc != 42 {
		t.Fatalf("expected child status 42, got %d", rc)
	}
}

func TestExecuteUnknownProgramFails(t *testing.T) {
	k := NewKernel(emptyImage(t), map[string]Program{})
	parent, _ := k.Table.Allocate(-1, 0)
	rc := k.Execute(&Context{PCB: parent, K: k}, "nope")
	if rc != -1 {
		t.Fatalf("expected -1 for unknown program, got %d", rc)
	}
}

func TestExecuteFreesChildPidOnReturn(t *testing.T) {
	programs := map[string]Program{
		"ok": func(ctx *Context) int32 { return 0 },
	}
	k := NewKernel(emptyImage(t), programs)
	parent, _ := k.Table.Allocate(-1, 0)
	before := k.Table.InUse(1)
	if before {
		t.Fatal("expected pid 1 free before execute")
	}
	k.Execute(&Context{PCB: parent, K: k}, "ok")
	if k.Table.InUse(1) {
		t.Fatal("expected child pid freed after halting")
	}
}

func TestExecuteRecoversPanickingProgram(t *testing.T) {
	programs := map[string]Program{
		"crash": func(ctx *Context) int32 {
			var n int
			return int32(1 / n) // divide by zero, the §8 scenario 6 fault.
		},
	}
	k := NewKernel(emptyImage(t), programs)
	parent, _ := k.Table.Allocate(-1, 0)
	rc := k.Execute(&Context{PCB: parent, K: k}, "crash")
	if rc != statusFaulted {
		t.Fatalf("expected a recovered program to report status %d, got %d", statusFaulted, rc)
	}
	if k.Table.InUse(1) {
		t.Fatal("expected the faulting child's pid freed despite the panic")
	}
}

func TestExecuteClosesDescriptorsOnHalt(t *testing.T) {
	content := []byte("data")
	raw := buildImage(t, "f", content)
	img, err := fsimage.FromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	var opened *process.FileDescriptor
	programs := map[string]Program{
		"reader": func(ctx *Context) int32 {
			fd := ctx.K.Open(ctx, "f")
			if fd < 0 {
				t.Fatal("expected open to succeed")
			}
			opened = &ctx.PCB.FDs[fd]
			return 0
		},
	}
	k := NewKernel(img, programs)
	parent, _ := k.Table.Allocate(-1, 0)
	k.Execute(&Context{PCB: parent, K: k}, "reader")
	if opened.InUse {
		t.Fatal("expected halt to close every descriptor left open by the child")
	}
}

func TestOpenCloseRegularFile(t *testing.T) {
	content := []byte("hello")
	raw := buildImage(t, "greeting", content)
	img, err := fsimage.FromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	k := NewKernel(img, map[string]Program{})
	p, _ := k.Table.Allocate(-1, 0)
	p.OpenFD(0, nil, 0)
	p.OpenFD(1, nil, 0)
	ctx := &Context{PCB: p, K: k}

	fd := k.Open(ctx, "greeting")
	if fd < 2 {
		t.Fatalf("expected descriptor >= 2, got %d", fd)
	}
	buf := make([]byte, 16)
	n := k.Read(ctx, int(fd), buf)
	if n != int32(len(content)) || string(buf[:n]) != string(content) {
		t.Fatalf("unexpected read result n=%d buf=%q", n, buf[:n])
	}
	if rc := k.Close(ctx, int(fd)); rc != 0 {
		t.Fatalf("expected close success, got %d", rc)
	}
}

func TestCloseReservedDescriptorsFails(t *testing.T) {
	k := NewKernel(emptyImage(t), map[string]Program{})
	p, _ := k.Table.Allocate(-1, 0)
	ctx := &Context{PCB: p, K: k}
	if rc := k.Close(ctx, 0); rc != -1 {
		t.Fatalf("expected close(0) to fail, got %d", rc)
	}
	if rc := k.Close(ctx, 1); rc != -1 {
		t.Fatalf("expected close(1) to fail, got %d", rc)
	}
}

func TestGetArgsRoundTrip(t *testing.T) {
	k := NewKernel(emptyImage(t), map[string]Program{})
	p, _ := k.Table.Allocate(-1, 0)
	p.SetArgs("alpha beta")
	ctx := &Context{PCB: p, K: k}
	buf := make([]byte, 32)
	if rc := k.GetArgs(ctx, buf); rc != 0 {
		t.Fatalf("expected getargs success, got %d", rc)
	}
	if string(buf[:10]) != "alpha beta" || buf[10] != 0 {
		t.Fatalf("unexpected args buffer %q", buf[:11])
	}
}

func TestSetHandlerAndSigReturn(t *testing.T) {
	k := NewKernel(emptyImage(t), map[string]Program{})
	p, _ := k.Table.Allocate(-1, 0)
	ctx := &Context{PCB: p, K: k}
	if rc := k.SetHandler(ctx, 4, 0x2000); rc != 0 {
		t.Fatalf("expected set_handler success, got %d", rc)
	}
	if p.Signals[4].Handler != 0x2000 {
		t.Fatal("expected handler address installed")
	}
	signal.Raise(p, 4)
	_, _, _, saved := signal.Deliver(p)
	if rc := k.SigReturn(ctx, saved); rc != 0 {
		t.Fatalf("expected sigreturn success, got %d", rc)
	}
}

func TestVidmapRejectsOutOfRangePointer(t *testing.T) {
	k := NewKernel(emptyImage(t), map[string]Program{})
	p, _ := k.Table.Allocate(-1, 0)
	ctx := &Context{PCB: p, K: k}
	buf := make([]byte, 4)
	if rc := k.Vidmap(ctx, 0, buf); rc != -1 {
		t.Fatalf("expected vidmap to reject a kernel-space pointer, got %d", rc)
	}
}

func TestVidmapWritesVirtualAddressThroughPointer(t *testing.T) {
	k := NewKernel(emptyImage(t), map[string]Program{})
	p, _ := k.Table.Allocate(-1, 0)
	ctx := &Context{PCB: p, K: k}
	buf := make([]byte, 4)
	if rc := k.Vidmap(ctx, paging.UserVidmapBase, buf); rc != 0 {
		t.Fatalf("expected vidmap to succeed, got %d", rc)
	}
	got := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	if got != paging.UserVidmapBase {
		t.Fatalf("expected %#x written through buf, got %#x", uint32(paging.UserVidmapBase), got)
	}
}

// buildImage mirrors fsimage's own fixture builder for this package's
// tests, since it lives in an internal test file elsewhere.
func buildImage(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	const blockSize = fsimage.BlockSize
	numBlocks := (len(content) + blockSize - 1) / blockSize
	if numBlocks == 0 {
		numBlocks = 1
	}
	raw := make([]byte, blockSize+blockSize+numBlocks*blockSize)
	putU32 := func(off int, v uint32) {
		raw[off] = byte(v)
		raw[off+1] = byte(v >> 8)
		raw[off+2] = byte(v >> 16)
		raw[off+3] = byte(v >> 24)
	}
	putU32(0, 1)
	putU32(4, 1)
	putU32(8, uint32(numBlocks))

	off := 64
	copy(raw[off:off+len(name)], name)
	putU32(off+32, fsimage.TypeRegular)
	putU32(off+36, 0)

	inodeOff := blockSize
	putU32(inodeOff, uint32(len(content)))
	for b := 0; b < numBlocks; b++ {
		putU32(inodeOff+4+b*4, uint32(b))
	}

	dataOff := blockSize + blockSize
	copy(raw[dataOff:], content)
	return raw
}
