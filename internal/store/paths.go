package store

import "path/filepath"

func StatePath(root string) string {
	return filepath.Join(root, "state.toml")
}

func BackupRoot(root string) string {
	return filepath.Join(root, "backups")
}

func AuditPath(root string) string {
	return filepath.Join(root, "audit.log")
}
