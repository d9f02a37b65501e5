package fdops

import (
	"testing"

	"github.com/rcornwell/kos/internal/fsimage"
	"github.com/rcornwell/kos/internal/keyboard"
	"github.com/rcornwell/kos/internal/paging"
	"github.com/rcornwell/kos/internal/process"
	"github.com/rcornwell/kos/internal/rtc"
	"github.com/rcornwell/kos/internal/video"
)

func init() {
	paging.Init(paging.LargePageSize)
	video.Init()
}

func newPCB(t *testing.T, term int) *process.PCB {
	t.Helper()
	tbl := process.NewTable()
	p, err := tbl.Allocate(process.NoParent, term)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTerminalInWaitsForNewline(t *testing.T) {
	keyboard.Init()
	p := newPCB(t, 0)
	var fd process.FileDescriptor
	in := TerminalIn{}

	buf := make([]byte, 16)
	if n := in.Read(p, &fd, buf); n != 0 {
		t.Fatalf("expected 0 before a newline, got %d", n)
	}

	for _, ch := range []byte("hi\n") {
		keyboard.InjectScanCode(scanCodeFor(ch))
	}
	n := in.Read(p, &fd, buf)
	if n <= 0 {
		t.Fatalf("expected a delivered line, got n=%d", n)
	}
}

// scanCodeFor maps a handful of ASCII characters used by this test back
// to their set-1 scan codes.
func scanCodeFor(ch byte) byte {
	switch ch {
	case 'h':
		return 0x23
	case 'i':
		return 0x17
	case '\n':
		return 0x1C
	}
	return 0
}

func TestTerminalOutWritesToForeground(t *testing.T) {
	video.Init()
	p := newPCB(t, 0)
	out := TerminalOut{}
	var fd process.FileDescriptor
	n := out.Write(p, &fd, []byte("ok"))
	if n != 2 {
		t.Fatalf("expected 2 bytes written, got %d", n)
	}
}

func TestRTCFileOpsOpenAndPoll(t *testing.T) {
	rtc.Init()
	p := newPCB(t, 1)
	dev := RTC{}
	var fd process.FileDescriptor
	dev.Open(p, &fd, "rtc")
	if err := rtc.SetFrequency(1, 2); err != nil {
		t.Fatal(err)
	}
	// BaseHz/2 == 512 hardware ticks produce one virtual tick; Fire()
	// delivers one hardware tick per call.
	for i := 0; i < rtc.BaseHz/2; i++ {
		rtc.Fire()
	}
	if n := dev.Read(p, &fd, nil); n != 0 {
		t.Fatalf("expected read to report success (0), got %d", n)
	}
}

func TestRTCFileOpsWriteSetsFrequency(t *testing.T) {
	rtc.Init()
	p := newPCB(t, 2)
	dev := RTC{}
	var fd process.FileDescriptor
	dev.Open(p, &fd, "rtc")

	buf := []byte{2, 0, 0, 0} // little-endian uint32(2) Hz
	if rc := dev.Write(p, &fd, buf); rc != 0 {
		t.Fatalf("expected write to succeed, got %d", rc)
	}
	for i := 0; i < rtc.BaseHz/2; i++ {
		rtc.Fire()
	}
	if n := dev.Read(p, &fd, nil); n != 0 {
		t.Fatalf("expected a tick at the frequency set by write, got %d", n)
	}
}

func TestRTCFileOpsWriteRejectsInvalidFrequency(t *testing.T) {
	rtc.Init()
	p := newPCB(t, 1)
	dev := RTC{}
	var fd process.FileDescriptor
	dev.Open(p, &fd, "rtc")

	buf := []byte{3, 0, 0, 0} // not a power of two
	if rc := dev.Write(p, &fd, buf); rc != -1 {
		t.Fatalf("expected write to reject invalid frequency, got %d", rc)
	}
}

func TestRegularFileOpsOpenAndRead(t *testing.T) {
	content := []byte("data")
	raw := buildTestImage(t, "f", content)
	img, err := fsimage.FromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	p := newPCB(t, 0)
	ops := RegularFile{Image: img}
	var fd process.FileDescriptor
	if rc := ops.Open(p, &fd, "f"); rc != 0 {
		t.Fatalf("expected open success, got %d", rc)
	}
	buf := make([]byte, 16)
	n := ops.Read(p, &fd, buf)
	if n != int32(len(content)) {
		t.Fatalf("expected %d bytes, got %d", len(content), n)
	}
}

func TestRegularFileOpsOpenMissingFails(t *testing.T) {
	raw := buildTestImage(t, "f", []byte("x"))
	img, _ := fsimage.FromBytes(raw)
	p := newPCB(t, 0)
	ops := RegularFile{Image: img}
	var fd process.FileDescriptor
	if rc := ops.Open(p, &fd, "missing"); rc != -1 {
		t.Fatalf("expected open failure, got %d", rc)
	}
}

// buildTestImage mirrors fsimage's own test fixture builder, duplicated
// here (unexported, package-local) since fsimage's builder is in an
// internal test file and not part of its exported API.
func buildTestImage(t *testing.T, name string, content []byte) []byte {
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
