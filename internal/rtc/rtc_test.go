package rtc

import "testing"

func TestOpenResetsToDefaultFrequency(t *testing.T) {
	Init()
	if err := SetFrequency(0, 8); err != nil {
		t.Fatal(err)
	}
	Open(0)
	// At the default 2 Hz, BaseHz/2 = 512 hardware ticks should be
	// required for one virtual tick.
	for i := 0; i < 511; i++ {
		tick()
	}
	if Poll(0, 1) {
		t.Fatal("expected no virtual tick yet at default frequency")
	}
	tick()
	if !Poll(0, 1) {
		t.Fatal("expected one virtual tick after 512 hardware ticks at 2 Hz")
	}
}

func TestSetFrequencyRejectsNonPowerOfTwo(t *testing.T) {
	Init()
	if err := SetFrequency(0, 3); err == nil {
		t.Fatal("expected error for non-power-of-two frequency")
	}
	if err := SetFrequency(0, 2048); err == nil {
		t.Fatal("expected error for out-of-range frequency")
	}
}

func TestWriteThenReadYieldsTicksAtFrequency(t *testing.T) {
	Init()
	if err := SetFrequency(1, 4); err != nil {
		t.Fatal(err)
	}
	want := BaseHz / 4 * 3
	for i := 0; i < want; i++ {
		tick()
	}
	if !Poll(1, 3) {
		t.Fatal("expected 3 virtual ticks to be ready at 4 Hz")
	}
	if Poll(1, 1) {
		t.Fatal("expected ticks to be consumed by the prior Poll")
	}
}

func TestFireDeliversThroughIDT(t *testing.T) {
	Init()
	Enable()
	if err := SetFrequency(2, BaseHz); err != nil {
		t.Fatal(err)
	}
	Fire()
	if !Poll(2, 1) {
		t.Fatal("expected Fire() to deliver one virtual tick at max frequency")
	}
}
