package config

const (
	SchemaVersion = 1
	DefaultKeep   = 5
)

// DefaultConfig returns a fully-populated v1 config document.
func DefaultConfig() Config {
	return Config{
		Version: SchemaVersion,
		Storage: StorageConfig{
			Root: "~/.emuinject",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Backup: BackupConfig{
			Enabled: true,
			Keep:    DefaultKeep,
		},
	}
}
