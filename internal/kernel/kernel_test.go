package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rcornwell/kos/config/bootconfig"
	"github.com/rcornwell/kos/internal/fsimage"
)

func writeImage(t *testing.T) string {
	t.Helper()
	raw := make([]byte, fsimage.BlockSize)
	dir := t.TempDir()
	path := filepath.Join(dir, "fs.img")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewLoadsImageAndWiresSyscalls(t *testing.T) {
	cfg := bootconfig.Default()
	cfg.ImagePath = writeImage(t)
	k, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if k.Syscall == nil || k.Sched == nil {
		t.Fatal("expected syscall kernel and scheduler to be wired")
	}
}

func TestNewFailsOnMissingImage(t *testing.T) {
	cfg := bootconfig.Default()
	cfg.ImagePath = filepath.Join(t.TempDir(), "does-not-exist.img")
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing filesystem image")
	}
}

func TestBootCompletesWithoutStartingScheduler(t *testing.T) {
	cfg := bootconfig.Default()
	cfg.ImagePath = writeImage(t)
	k, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	k.Boot()
	if k.Log() == nil {
		t.Fatal("expected a configured logger after Boot")
	}
}

func TestStopWithoutStartReturnsPromptly(t *testing.T) {
	cfg := bootconfig.Default()
	cfg.ImagePath = writeImage(t)
	k, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	k.Boot()
	go k.Stop()
	k.Start()
}
