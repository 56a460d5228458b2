package store

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/zeebo/xxh3"

	"emuinject/internal/fsutil"
)

func EnsureLayout(root string) error {
	for _, d := range []string{root, BackupRoot(root)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func LoadState(root string) (State, error) {
	if err := EnsureLayout(root); err != nil {
		return State{}, err
	}
	blob, err := os.ReadFile(StatePath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return State{Version: StateVersion}, nil
		}
		return State{}, err
	}
	var st State
	if err := toml.Unmarshal(blob, &st); err != nil {
		return State{}, fmt.Errorf("DOC_STATE_PARSE: %w", err)
	}
	if st.Version == 0 {
		st.Version = StateVersion
	}
	if st.Version != StateVersion {
		return State{}, fmt.Errorf("DOC_STATE_VERSION: unsupported state version %d", st.Version)
	}
	for i := range st.Injections {
		if st.Injections[i].Emulator == "" {
			return State{}, fmt.Errorf("DOC_STATE_SCHEMA: injection entry missing emulator")
		}
	}
	return st, nil
}

func SaveState(root string, st State) error {
	if err := EnsureLayout(root); err != nil {
		return err
	}
	st.Version = StateVersion
	sort.Slice(st.Injections, func(i, j int) bool {
		return st.Injections[i].Emulator < st.Injections[j].Emulator
	})
	blob, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("DOC_STATE_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(StatePath(root), blob, 0o644)
}

func SetInjection(st *State, in Injection) {
	for i := range st.Injections {
		if strings.EqualFold(st.Injections[i].Emulator, in.Emulator) {
			st.Injections[i] = in
			return
		}
	}
	st.Injections = append(st.Injections, in)
}

func FindInjection(st State, emulator string) (Injection, bool) {
	for _, in := range st.Injections {
		if strings.EqualFold(in.Emulator, emulator) {
			return in, true
		}
	}
	return Injection{}, false
}

// Digest is the hex xxh3 hash recorded for config contents.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
