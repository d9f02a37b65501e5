package bootconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kos.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDirectives(t *testing.T) {
	path := writeConfig(t, "# boot config\nimage /boot/fs.img\nloglevel debug\nrtchz 4\ndebug true\n")
	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImagePath != "/boot/fs.img" {
		t.Fatalf("unexpected image path %q", cfg.ImagePath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.RTCHz != 4 {
		t.Fatalf("unexpected rtchz %d", cfg.RTCHz)
	}
	if !cfg.Debug {
		t.Fatal("expected debug true")
	}
}

func TestLoadRejectsUnknownDirective(t *testing.T) {
	path := writeConfig(t, "bogus value\n")
	if _, err := Load(path, Default()); err == nil {
		t.Fatal("expected error for unknown directive")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, "loglevel verbose\n")
	if _, err := Load(path, Default()); err == nil {
		t.Fatal("expected error for invalid loglevel")
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	path := writeConfig(t, "\n# comment only\n   \nimage x.img\n")
	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImagePath != "x.img" {
		t.Fatalf("unexpected image path %q", cfg.ImagePath)
	}
}
