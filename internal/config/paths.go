package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ConfigEnv overrides the default config location.
const ConfigEnv = "EMUINJECT_CONFIG"

func DefaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigEnv)); p != "" {
		if expanded, err := ExpandPath(p); err == nil {
			return expanded
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".emuinject/config.toml"
	}
	return filepath.Join(home, ".emuinject", "config.toml")
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}

func ResolveStorageRoot(cfg Config) (string, error) {
	expanded, err := ExpandPath(cfg.Storage.Root)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

// ExpandCandidates expands "~" in emulator candidate paths.
func ExpandCandidates(candidates []string) ([]string, error) {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		p, err := ExpandPath(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
