package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEnsureLayoutCreatesExpectedDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "state")
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("ensure layout failed: %v", err)
	}
	for _, dir := range []string{root, BackupRoot(root)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestLoadStateDefaultsWhenMissing(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("load state failed: %v", err)
	}
	if st.Version != StateVersion || len(st.Injections) != 0 {
		t.Fatalf("unexpected default state: %+v", st)
	}
}

func TestSaveLoadStateRoundTripSortsByEmulator(t *testing.T) {
	root := filepath.Join(t.TempDir(), "state")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := State{}
	SetInjection(&st, Injection{Emulator: "xenia", Path: "/emu/xenia.config.toml", Digest: Digest([]byte("a")), AppliedAt: at})
	SetInjection(&st, Injection{Emulator: "citra", Path: "/emu/qt-config.ini", Modified: true, Replaced: []string{"UI.fullscreen"}, AppliedAt: at})
	if err := SaveState(root, st); err != nil {
		t.Fatalf("save state failed: %v", err)
	}
	got, err := LoadState(root)
	if err != nil {
		t.Fatalf("load state failed: %v", err)
	}
	if len(got.Injections) != 2 || got.Injections[0].Emulator != "citra" || got.Injections[1].Emulator != "xenia" {
		t.Fatalf("unexpected order: %+v", got.Injections)
	}
	if !got.Injections[0].AppliedAt.Equal(at) || got.Injections[0].Replaced[0] != "UI.fullscreen" {
		t.Fatalf("unexpected record: %+v", got.Injections[0])
	}
}

func TestSetInjectionReplacesCaseInsensitively(t *testing.T) {
	st := State{}
	SetInjection(&st, Injection{Emulator: "PCSX2", Digest: "1"})
	SetInjection(&st, Injection{Emulator: "pcsx2", Digest: "2"})
	if len(st.Injections) != 1 {
		t.Fatalf("injections = %+v", st.Injections)
	}
	in, ok := FindInjection(st, "Pcsx2")
	if !ok || in.Digest != "2" {
		t.Fatalf("FindInjection = %+v, %v", in, ok)
	}
}

func TestLoadStateRejectsBadVersionAndSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"parse", "version = [", "DOC_STATE_PARSE"},
		{"version", "version = 9\n", "DOC_STATE_VERSION"},
		{"schema", "version = 1\n[[injections]]\npath = \"/x\"\n", "DOC_STATE_SCHEMA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "state")
			if err := EnsureLayout(root); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(StatePath(root), []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadState(root)
			if err == nil || !strings.Contains(err.Error(), tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDigestIsStable(t *testing.T) {
	a, b := Digest([]byte("[UI]\nStartFullscreen = true\n")), Digest([]byte("[UI]\nStartFullscreen = true\n"))
	if a != b || len(a) != 16 {
		t.Fatalf("digest = %q / %q", a, b)
	}
	if a == Digest([]byte("[UI]\nStartFullscreen = false\n")) {
		t.Fatal("different content, same digest")
	}
}
