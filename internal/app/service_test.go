package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"emuinject/internal/backup"
	"emuinject/internal/config"
	"emuinject/internal/injector"
	"emuinject/internal/settings"
	"emuinject/internal/store"
)

const bagTOML = `[video]
fullscreen = true
vsync = false

[paths]
roms = "/games/psx"
bios = "/games/bios"
`

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	svc, err := New(Options{ConfigPath: filepath.Join(home, ".emuinject", "config.toml"), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	return svc, home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bag.toml")
	writeFile(t, path, bagTOML)
	bag, err := LoadBag(path)
	if err != nil {
		t.Fatalf("LoadBag: %v", err)
	}
	if got := bag.Sections(); len(got) != 2 || got[0] != "video" || got[1] != "paths" {
		t.Fatalf("sections = %v", got)
	}
	if v, ok := bag.Get("VIDEO", "FullScreen"); !ok || !v.Bool() {
		t.Fatalf("video.fullscreen = %v, %v", v, ok)
	}

	writeFile(t, path, "[[x]]\na = 1\n")
	if _, err := LoadBag(path); err == nil {
		t.Fatal("expected error for array of tables")
	}
}

func TestLoadBagYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bag.yaml")
	writeFile(t, path, "profile: couch\nvideo:\n  fullscreen: true\n  scale: 3\npaths:\n  roms: /games/psx\n")
	bag, err := LoadBag(path)
	if err != nil {
		t.Fatalf("LoadBag: %v", err)
	}
	if got := bag.Sections(); len(got) != 3 || got[0] != "" || got[1] != "video" || got[2] != "paths" {
		t.Fatalf("sections = %v", got)
	}
	if v, ok := bag.Get("video", "fullscreen"); !ok || !v.Bool() {
		t.Fatalf("video.fullscreen = %v, %v", v, ok)
	}
	if v, ok := bag.Get("video", "scale"); !ok || v.Kind != settings.Int || v.Int() != 3 {
		t.Fatalf("video.scale = %v, %v", v, ok)
	}
	if v, ok := bag.Get("paths", "roms"); !ok || v.String() != "/games/psx" {
		t.Fatalf("paths.roms = %v, %v", v, ok)
	}

	for _, body := range []string{"video:\n  modes: [a, b]\n", "- a\n- b\n", "video:\n  vsync: ~\n"} {
		writeFile(t, path, body)
		if _, err := LoadBag(path); err == nil || !strings.Contains(err.Error(), "BAG_PARSE") {
			t.Fatalf("%q: expected BAG_PARSE, got %v", body, err)
		}
	}
}

func TestApplyRecordsHistoryAndAudit(t *testing.T) {
	svc, home := newTestService(t)
	exe := filepath.Join(home, "emu", "duckstation.exe")
	writeFile(t, exe, "MZ")
	bagPath := filepath.Join(home, "bag.toml")
	writeFile(t, bagPath, bagTOML)

	rep, err := svc.Apply(context.Background(), "duckstation", exe, bagPath, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !rep.Bootstrapped || !rep.Written {
		t.Fatalf("report = %+v", rep)
	}

	history, err := svc.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Emulator != "duckstation" || history[0].Digest != rep.Digest {
		t.Fatalf("history = %+v", history)
	}
	data, _ := os.ReadFile(rep.Path)
	if store.Digest(data) != history[0].Digest {
		t.Fatal("recorded digest does not match file")
	}

	blob, err := os.ReadFile(store.AuditPath(svc.StateRoot))
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	if !strings.Contains(string(blob), `"operation":"apply"`) {
		t.Fatalf("audit = %s", blob)
	}
}

func TestApplyDryRunRecordsNothing(t *testing.T) {
	svc, home := newTestService(t)
	exe := filepath.Join(home, "emu", "xenia.exe")
	writeFile(t, exe, "MZ")
	bagPath := filepath.Join(home, "bag.toml")
	writeFile(t, bagPath, bagTOML)

	rep, err := svc.Apply(context.Background(), "xenia", exe, bagPath, true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.Written {
		t.Fatal("dry run wrote")
	}
	history, _ := svc.History()
	if len(history) != 0 {
		t.Fatalf("history = %+v", history)
	}
}

func TestApplyFailureIsAudited(t *testing.T) {
	svc, home := newTestService(t)
	exe := filepath.Join(home, "emu", "Ryujinx.exe")
	writeFile(t, exe, "MZ")
	writeFile(t, filepath.Join(home, "emu", "Config.json"), "[1, 2]")
	bagPath := filepath.Join(home, "bag.toml")
	writeFile(t, bagPath, bagTOML)

	_, err := svc.Apply(context.Background(), "ryujinx", exe, bagPath, false)
	if !errors.Is(err, injector.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	blob, _ := os.ReadFile(store.AuditPath(svc.StateRoot))
	if !strings.Contains(string(blob), `"code":"INJ_PARSE"`) {
		t.Fatalf("audit = %s", blob)
	}
}

func TestDisabledEmulatorAndCandidates(t *testing.T) {
	svc, home := newTestService(t)
	custom := filepath.Join(home, "portable", "PCSX2.ini")
	writeFile(t, custom, "[UI]\nStartFullscreen = false\n")
	svc.Config.Emulators = []config.EmulatorConfig{
		{Name: "pcsx2", Enabled: true, Candidates: []string{"~/portable/PCSX2.ini"}},
		{Name: "dolphin", Enabled: false},
	}
	if err := svc.SaveConfig(); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	exe := filepath.Join(home, "emu", "pcsx2.exe")
	writeFile(t, exe, "MZ")

	loc, err := svc.Locate("pcsx2", exe)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Path != custom {
		t.Fatalf("loc = %+v, want %s", loc, custom)
	}
	if _, err := svc.Schema("dolphin"); err == nil || !strings.Contains(err.Error(), "EMU_DISABLED") {
		t.Fatalf("err = %v, want EMU_DISABLED", err)
	}
}

func TestRestoreAfterApply(t *testing.T) {
	svc, home := newTestService(t)
	exe := filepath.Join(home, "emu", "retroarch.exe")
	writeFile(t, exe, "MZ")
	cfgPath := filepath.Join(home, "emu", "retroarch.cfg")
	original := "video_fullscreen = \"false\"\n# mine\n"
	writeFile(t, cfgPath, original)
	bagPath := filepath.Join(home, "bag.toml")
	writeFile(t, bagPath, bagTOML)

	rep, err := svc.Apply(context.Background(), "retroarch", exe, bagPath, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.Backup == "" {
		t.Fatal("expected backup")
	}
	if _, _, err := svc.Restore("retroarch", exe); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, _ := os.ReadFile(cfgPath)
	if string(got) != original {
		t.Fatalf("restored %q, want %q", got, original)
	}

	if _, _, err := svc.Restore("cemu", exe); !errors.Is(err, backup.ErrNoBackup) {
		t.Fatalf("err = %v, want ErrNoBackup", err)
	}
}

func TestBindings(t *testing.T) {
	svc, home := newTestService(t)
	bagPath := filepath.Join(home, "bag.toml")
	writeFile(t, bagPath, bagTOML)
	bindings, err := svc.Bindings("citra", bagPath)
	if err != nil {
		t.Fatalf("Bindings: %v", err)
	}
	if len(bindings) != 2 || bindings[0].Key != "fullscreen" || bindings[0].Scope != "UI" {
		t.Fatalf("bindings = %v", bindings)
	}
}

func TestDoctorRun(t *testing.T) {
	svc, _ := newTestService(t)
	if report := svc.DoctorRun(context.Background()); !report.Healthy {
		t.Fatalf("report = %+v", report)
	}
}
