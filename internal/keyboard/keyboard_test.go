package keyboard

import (
	"testing"

	"github.com/rcornwell/kos/internal/video"
)

func setup(t *testing.T) {
	t.Helper()
	video.Init()
	Init()
}

func typeString(s string) {
	scans := map[byte]byte{
		'l': 0x26, 's': 0x1F, '\n': scEnter,
	}
	for i := 0; i < len(s); i++ {
		InjectScanCode(scans[s[i]])
	}
}

func TestTypingLsNewlineDeliversLine(t *testing.T) {
	setup(t)
	typeString("ls\n")
	line := Line(video.Foreground())
	if !line.NewlineDelivered {
		t.Fatal("expected newline delivered flag set")
	}
	if string(line.Buf[:line.Len]) != "ls\n" {
		t.Fatalf("unexpected buffer contents: %q", line.Buf[:line.Len])
	}
}

func TestShiftUppercases(t *testing.T) {
	setup(t)
	InjectScanCode(scLShift)
	InjectScanCode(0x26) // 'l' key -> 'L' shifted
	InjectScanCode(scLShift | breakBit)
	line := Line(video.Foreground())
	if line.Len != 1 || line.Buf[0] != 'L' {
		t.Fatalf("expected shifted 'L', got %q", line.Buf[:line.Len])
	}
}

func TestCapsLockTogglesOnPressOnly(t *testing.T) {
	setup(t)
	InjectScanCode(scCapsLock)
	InjectScanCode(scCapsLock | breakBit) // release must not re-toggle
	InjectScanCode(0x26)
	line := Line(video.Foreground())
	if line.Buf[0] != 'L' {
		t.Fatalf("expected caps-lock uppercase, got %q", line.Buf[:line.Len])
	}
}

func TestAltF2SwitchesForegroundWithoutTouchingOtherBuffer(t *testing.T) {
	setup(t)
	InjectScanCode(0x26) // types into terminal 0's buffer
	InjectScanCode(scLAlt)
	InjectScanCode(scF2)
	InjectScanCode(scLAlt | breakBit)
	if video.Foreground() != 1 {
		t.Fatalf("expected foreground switched to terminal 1, got %d", video.Foreground())
	}
	InjectScanCode(0x1F) // types into terminal 1's buffer now
	if Line(0).Len != 1 {
		t.Fatalf("terminal 0 buffer should be undisturbed, got len %d", Line(0).Len)
	}
	if Line(1).Len != 1 {
		t.Fatalf("terminal 1 should have received the keystroke, got len %d", Line(1).Len)
	}
}

func TestBackspaceDecrementsIndex(t *testing.T) {
	setup(t)
	InjectScanCode(0x26)
	InjectScanCode(scBackspace)
	if Line(video.Foreground()).Len != 0 {
		t.Fatal("expected backspace to decrement buffer length to 0")
	}
}

func TestBufferFullIgnoresExtraCharsButAllowsNewline(t *testing.T) {
	setup(t)
	for i := 0; i < lineBufCap; i++ {
		InjectScanCode(0x26)
	}
	line := Line(video.Foreground())
	full := line.Len
	InjectScanCode(0x26)
	if line.Len != full {
		t.Fatalf("expected buffer to stay full at %d, got %d", full, line.Len)
	}
	InjectScanCode(scEnter)
	if line.Len != full+1 || !line.NewlineDelivered {
		t.Fatalf("expected newline accepted into a full buffer, got len %d delivered=%v", line.Len, line.NewlineDelivered)
	}
}
