package config

import (
	"fmt"
	"strings"
)

var allowedLevels = map[string]struct{}{
	"trace": {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var allowedFormats = map[string]struct{}{
	"text": {},
	"json": {},
}

func Validate(cfg Config) error {
	if cfg.Version != SchemaVersion {
		return fmt.Errorf("DOC_CONFIG_VERSION: unsupported version %d", cfg.Version)
	}
	if cfg.Storage.Root == "" {
		return fmt.Errorf("DOC_CONFIG_STORAGE: missing storage root")
	}
	if cfg.Logging.Level == "" || cfg.Logging.Format == "" {
		return fmt.Errorf("DOC_CONFIG_LOGGING: missing logging level/format")
	}
	if _, ok := allowedLevels[cfg.Logging.Level]; !ok {
		return fmt.Errorf("DOC_CONFIG_LOGGING: invalid level %q", cfg.Logging.Level)
	}
	if _, ok := allowedFormats[cfg.Logging.Format]; !ok {
		return fmt.Errorf("DOC_CONFIG_LOGGING: invalid format %q", cfg.Logging.Format)
	}
	if cfg.Backup.Keep < 1 {
		return fmt.Errorf("DOC_CONFIG_BACKUP: keep must be at least 1, got %d", cfg.Backup.Keep)
	}

	names := map[string]struct{}{}
	for _, e := range cfg.Emulators {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("EMU_CONFIG_EMULATOR: emulator name is required")
		}
		key := strings.ToLower(e.Name)
		if _, ok := names[key]; ok {
			return fmt.Errorf("EMU_CONFIG_EMULATOR: duplicate emulator %q", e.Name)
		}
		names[key] = struct{}{}
		for _, c := range e.Candidates {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("EMU_CONFIG_EMULATOR: emulator %q has an empty candidate", e.Name)
			}
		}
	}
	return nil
}
