package pit

import (
	"testing"

	"github.com/rcornwell/kos/internal/ports"
)

func TestFireInvokesOnTickAndEOIs(t *testing.T) {
	calls := 0
	Init(func() { calls++ })
	Enable()
	ports.Out8(ports.PICPrimaryCommand, 0)
	before := Ticks()
	Fire()
	Fire()
	if calls != 2 {
		t.Fatalf("expected onTick called twice, got %d", calls)
	}
	if Ticks() != before+2 {
		t.Fatalf("expected tick counter to advance by 2, got %d -> %d", before, Ticks())
	}
	if got := ports.In8(ports.PICPrimaryCommand); got != 0x60 {
		t.Fatalf("expected EOI 0x60 for IRQ0 on the primary PIC, got %#x", got)
	}
}
