package programs

import (
	"testing"

	"github.com/rcornwell/kos/internal/fdops"
	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/process"
	"github.com/rcornwell/kos/internal/syscall"
	"github.com/rcornwell/kos/internal/video"
)

func init() {
	paging.Init(paging.LargePageSize)
	video.Init()
}

func TestRegistrySkipsMissingExecutables(t *testing.T) {
	raw := make([]byte, fsimage.BlockSize)
	img, err := fsimage.FromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	reg := Registry(img)
	if len(reg) != 0 {
		t.Fatalf("expected empty registry for an image with no entries, got %v", reg)
	}
}

func TestTestPrintWritesDiagnosticLine(t *testing.T) {
	raw := make([]byte, fsimage.BlockSize)
	img, _ := fsimage.FromBytes(raw)
	k := syscall.NewKernel(img, map[string]syscall.Program{"testprint": TestPrint})
	p, err := k.Table.Allocate(process.NoParent, 0)
	if err != nil {
		t.Fatal(err)
	}
	p.OpenFD(0, fdops.TerminalIn{}, 0)
	p.OpenFD(1, fdops.TerminalOut{}, 0)
	ctx := &syscall.Context{PCB: p, K: k}
	if rc := TestPrint(ctx); rc != 0 {
		t.Fatalf("expected testprint to return 0, got %d", rc)
	}
	if x, y := video.CursorPosition(0); x != 0 || y != 1 {
		t.Fatalf("expected one full line written to terminal 0, cursor at (%d,%d)", x, y)
	}
}
