package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestSaveAndRestore(t *testing.T) {
	root := t.TempDir()
	m := New(filepath.Join(root, "backups"), 3)
	original := []byte("[UI]\nStartFullscreen = false\n")

	snap, err := m.Save("PCSX2", original)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(snap.Path) != filepath.Join(root, "backups", "pcsx2") {
		t.Errorf("snapshot path = %s", snap.Path)
	}
	compressed, _ := os.ReadFile(snap.Path)
	if string(compressed) == string(original) {
		t.Error("snapshot is not compressed")
	}

	target := filepath.Join(root, "emu", "inis", "PCSX2.ini")
	if _, err := m.Restore("pcsx2", target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(original) {
		t.Fatalf("restored %q, want %q", got, original)
	}
}

func TestSaveKeepsNewest(t *testing.T) {
	m := New(t.TempDir(), 2)
	m.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, body := range []string{"v1", "v2", "v3"} {
		if _, err := m.Save("xenia", []byte(body)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	snaps, err := m.List("xenia")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}
	data, err := Read(snaps[0].Path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "v3" {
		t.Fatalf("latest = %q, want v3", data)
	}
}

func TestSaveSameInstant(t *testing.T) {
	m := New(t.TempDir(), 5)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
	a, err := m.Save("cemu", []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Save("cemu", []byte("b"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Fatal("snapshots collided")
	}
}

func TestRestoreWithoutBackup(t *testing.T) {
	m := New(t.TempDir(), 5)
	_, err := m.Restore("dolphin", filepath.Join(t.TempDir(), "Dolphin.ini"))
	if !errors.Is(err, ErrNoBackup) {
		t.Fatalf("err = %v, want ErrNoBackup", err)
	}
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.zst")
	if err := os.WriteFile(path, []byte("not zstd"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}
