package config

// Config is the v1 tool configuration.
type Config struct {
	Version   int              `toml:"version"`
	Storage   StorageConfig    `toml:"storage"`
	Logging   LoggingConfig    `toml:"logging"`
	Backup    BackupConfig     `toml:"backup"`
	Emulators []EmulatorConfig `toml:"emulators"`
}

type StorageConfig struct {
	Root string `toml:"root"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type BackupConfig struct {
	Enabled bool `toml:"enabled"`
	Keep    int  `toml:"keep"`
}

// EmulatorConfig overrides one emulator. Candidates are extra config
// locations tried before the built-in ones.
type EmulatorConfig struct {
	Name       string   `toml:"name" json:"name"`
	Enabled    bool     `toml:"enabled" json:"enabled"`
	Candidates []string `toml:"candidates,omitempty" json:"candidates,omitempty"`
}
