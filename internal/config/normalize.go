package config

import "strings"

func Normalize(cfg Config) Config {
	if cfg.Version == 0 {
		cfg.Version = SchemaVersion
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "~/.emuinject"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	if cfg.Backup.Keep == 0 {
		cfg.Backup.Keep = DefaultKeep
	}
	for i := range cfg.Emulators {
		cfg.Emulators[i].Name = strings.ToLower(strings.TrimSpace(cfg.Emulators[i].Name))
	}
	return cfg
}

// FindEmulator returns the override for name, if any.
func FindEmulator(cfg Config, name string) (EmulatorConfig, bool) {
	for _, e := range cfg.Emulators {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return EmulatorConfig{}, false
}

// EmulatorEnabled reports whether applies to name are allowed. Emulators
// without an override are enabled.
func EmulatorEnabled(cfg Config, name string) bool {
	e, ok := FindEmulator(cfg, name)
	return !ok || e.Enabled
}
