package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Backup.Enabled || cfg.Backup.Keep != DefaultKeep {
		t.Fatalf("unexpected backup defaults: %+v", cfg.Backup)
	}
}

func TestEnsureCreatesAndLoadsConfig(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.toml")
	cfg, err := Ensure(path)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if cfg.Version != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, cfg.Version)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file should exist: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Storage.Root != "~/.emuinject" {
		t.Fatalf("unexpected storage root %q", loaded.Storage.Root)
	}
}

func TestLoadNormalizesEmulators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `version = 1

[logging]
level = "DEBUG"
format = "json"

[[emulators]]
name = " PCSX2 "
enabled = false
candidates = ["~/pcsx2/inis/PCSX2.ini"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Backup.Keep != DefaultKeep {
		t.Fatalf("not normalized: %+v", cfg)
	}
	e, ok := FindEmulator(cfg, "pcsx2")
	if !ok || e.Name != "pcsx2" {
		t.Fatalf("FindEmulator = %+v, %v", e, ok)
	}
	if EmulatorEnabled(cfg, "pcsx2") || !EmulatorEnabled(cfg, "dolphin") {
		t.Fatal("EmulatorEnabled mismatch")
	}
	expanded, err := ExpandCandidates(e.Candidates)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(expanded[0], "~") {
		t.Fatalf("candidate not expanded: %s", expanded[0])
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"version", func(c *Config) { c.Version = 2 }, "DOC_CONFIG_VERSION"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "DOC_CONFIG_LOGGING"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "DOC_CONFIG_LOGGING"},
		{"keep", func(c *Config) { c.Backup.Keep = -1 }, "DOC_CONFIG_BACKUP"},
		{"duplicate", func(c *Config) {
			c.Emulators = []EmulatorConfig{{Name: "cemu"}, {Name: "CEMU"}}
		}, "EMU_CONFIG_EMULATOR"},
		{"candidate", func(c *Config) {
			c.Emulators = []EmulatorConfig{{Name: "cemu", Candidates: []string{" "}}}
		}, "EMU_CONFIG_EMULATOR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "xml"
	if err := Save(filepath.Join(t.TempDir(), "config.toml"), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDefaultConfigPathHonorsEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigEnv, "")
	if got, want := DefaultConfigPath(), filepath.Join(home, ".emuinject", "config.toml"); got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
	t.Setenv(ConfigEnv, "~/alt/emuinject.toml")
	if got, want := DefaultConfigPath(), filepath.Join(home, "alt", "emuinject.toml"); got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("version = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "DOC_CONFIG_PARSE") || !strings.Contains(err.Error(), path) {
		t.Fatalf("err = %v", err)
	}
}
