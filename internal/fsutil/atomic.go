package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite replaces path with data through a temp file in the same
// directory and a rename. An existing file keeps its permission bits;
// perm applies to new files. On any failure the temp file is removed and
// the original is left as it was.
func AtomicWrite(path string, data []byte, perm os.FileMode) (err error) {
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync tmp: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod tmp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
