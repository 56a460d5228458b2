package config

// Set at build time with -ldflags "-X emuinject/internal/config.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
