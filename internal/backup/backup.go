// Package backup keeps zstd-compressed copies of config files taken
// before they are overwritten.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"emuinject/internal/fsutil"
)

const ext = ".zst"

var ErrNoBackup = errors.New("no backup")

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

type Snapshot struct {
	Path string
	Time time.Time
}

// Manager stores snapshots under <root>/<emulator>/<unix-nanos>.zst and
// keeps the newest Keep of them per emulator.
type Manager struct {
	root string
	keep int
	now  func() time.Time
}

func New(root string, keep int) *Manager {
	if keep < 1 {
		keep = 1
	}
	return &Manager{root: root, keep: keep, now: time.Now}
}

func (m *Manager) dir(emulator string) string {
	return filepath.Join(m.root, strings.ToLower(emulator))
}

// Save compresses data into a new snapshot and prunes old ones.
func (m *Manager) Save(emulator string, data []byte) (Snapshot, error) {
	dir := m.dir(emulator)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("BACKUP_SAVE: %w", err)
	}
	ts := m.now().UTC()
	path := filepath.Join(dir, strconv.FormatInt(ts.UnixNano(), 10)+ext)
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		ts = ts.Add(time.Nanosecond)
		path = filepath.Join(dir, strconv.FormatInt(ts.UnixNano(), 10)+ext)
	}
	if err := fsutil.AtomicWrite(path, encoder.EncodeAll(data, nil), 0o600); err != nil {
		return Snapshot{}, fmt.Errorf("BACKUP_SAVE: %w", err)
	}
	if err := m.prune(emulator); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Time: ts}, nil
}

// List returns snapshots newest first.
func (m *Manager) List(emulator string) ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir(emulator))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BACKUP_LIST: %w", err)
	}
	var out []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		ns, err := strconv.ParseInt(strings.TrimSuffix(name, ext), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Path: filepath.Join(m.dir(emulator), name), Time: time.Unix(0, ns).UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out, nil
}

func (m *Manager) prune(emulator string) error {
	snaps, err := m.List(emulator)
	if err != nil {
		return err
	}
	for i := m.keep; i < len(snaps); i++ {
		if err := os.Remove(snaps[i].Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("BACKUP_PRUNE: %w", err)
		}
	}
	return nil
}

func (m *Manager) Latest(emulator string) (Snapshot, error) {
	snaps, err := m.List(emulator)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w for %s", ErrNoBackup, emulator)
	}
	return snaps[0], nil
}

func Read(path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("BACKUP_READ: %w", err)
	}
	out, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("BACKUP_READ: %s: %w", path, err)
	}
	return out, nil
}

// Restore writes the newest snapshot of emulator over target.
func (m *Manager) Restore(emulator, target string) (Snapshot, error) {
	snap, err := m.Latest(emulator)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := Read(snap.Path)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fsutil.EnsureDir(target); err != nil {
		return Snapshot{}, fmt.Errorf("BACKUP_RESTORE: %w", err)
	}
	if err := fsutil.AtomicWrite(target, data, 0o644); err != nil {
		return Snapshot{}, fmt.Errorf("BACKUP_RESTORE: %w", err)
	}
	return snap, nil
}
