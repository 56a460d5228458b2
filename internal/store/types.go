package store

import "time"

const StateVersion = 1

type State struct {
	Version    int         `toml:"version" json:"version"`
	Injections []Injection `toml:"injections" json:"injections"`
}

// Injection is the last successful apply for one emulator.
type Injection struct {
	Emulator  string    `toml:"emulator" json:"emulator"`
	Path      string    `toml:"path" json:"path"`
	Digest    string    `toml:"digest" json:"digest"`
	Modified  bool      `toml:"modified" json:"modified"`
	Appended  []string  `toml:"appended,omitempty" json:"appended,omitempty"`
	Replaced  []string  `toml:"replaced,omitempty" json:"replaced,omitempty"`
	Backup    string    `toml:"backup,omitempty" json:"backup,omitempty"`
	AppliedAt time.Time `toml:"applied_at" json:"applied_at"`
}
