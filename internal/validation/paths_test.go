package validation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathHandlerDBPath(t *testing.T) {
	ph := NewPathHandler()
	tmp := t.TempDir()

	want := filepath.Join(tmp, "nested", "prefs.db")
	got, err := ph.DBPath(want)
	if err != nil {
		t.Fatalf("DBPath() error = %v", err)
	}
	if got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
	if info, err := os.Stat(filepath.Dir(want)); err != nil || !info.IsDir() {
		t.Error("DBPath() should create the parent directory")
	}
}

func TestPathHandlerDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ph := NewPathHandler()

	db, err := ph.DBPath("")
	if err != nil {
		t.Fatalf("DBPath() error = %v", err)
	}
	if db != filepath.Join(home, ".subex.db") {
		t.Errorf("DBPath() = %q", db)
	}

	logPath, err := ph.LogPath("")
	if err != nil {
		t.Fatalf("LogPath() error = %v", err)
	}
	if logPath != filepath.Join(home, ".subex", "subex.log") {
		t.Errorf("LogPath() = %q", logPath)
	}
	if _, err := os.Stat(filepath.Join(home, ".subex")); err != nil {
		t.Error("LogPath() should create the log directory")
	}

	cfgPath, err := ph.ConfigPath("")
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	if cfgPath != filepath.Join(home, ".config", "subex", "config.toml") {
		t.Errorf("ConfigPath() = %q", cfgPath)
	}
}

func TestPathHandlerRejectsBadPaths(t *testing.T) {
	ph := NewPathHandler()
	tmp := t.TempDir()

	if _, err := ph.DBPath(tmp); err == nil {
		t.Error("DBPath() should reject a directory")
	}
	if _, err := ph.LogPath(tmp + "/../x.log"); err == nil {
		t.Error("LogPath() should reject traversal")
	}
	if _, err := ph.ConfigPath("bad\x00path"); err == nil {
		t.Error("ConfigPath() should reject null bytes")
	}
}
