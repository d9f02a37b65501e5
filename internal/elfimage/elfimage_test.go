package elfimage

import "testing"

func makeImage(entry uint32) []byte {
	img := make([]byte, 32)
	img[0], img[1], img[2], img[3] = 0x7F, 'E', 'L', 'F'
	img[24] = byte(entry)
	img[25] = byte(entry >> 8)
	img[26] = byte(entry >> 16)
	img[27] = byte(entry >> 24)
	return img
}

func TestEntryPointValidMagic(t *testing.T) {
	img := makeImage(0x08048000)
	e, err := EntryPoint(img)
	if err != nil {
		t.Fatal(err)
	}
	if e != 0x08048000 {
		t.Fatalf("expected entry 0x08048000, got %#x", e)
	}
}

func TestEntryPointBadMagic(t *testing.T) {
	img := makeImage(0x1000)
	img[1] = 'X'
	if _, err := EntryPoint(img); err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestEntryPointTruncated(t *testing.T) {
	if _, err := EntryPoint([]byte{0x7F, 'E', 'L', 'F'}); err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic for truncated image, got %v", err)
	}
}
