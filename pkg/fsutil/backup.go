package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupSuffix is appended to a file's path to name its backup.
const BackupSuffix = ".rulesync.bak"

// BackupPath returns the sidecar backup path of path.
func BackupPath(path string) string {
	return path + BackupSuffix
}

// CreateBackup copies path to its sidecar backup. An existing backup is
// kept so that repeated fix runs preserve the first original. Returns true
// when a backup was written.
func CreateBackup(ctx context.Context, path string) (bool, error) {
	backup := BackupPath(path)

	if _, err := os.Stat(backup); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat backup: %w", err)
	}

	content, snap, err := Read(ctx, path)
	if err != nil {
		return false, err
	}

	if err := WriteAtomic(ctx, backup, content, snap.Mode); err != nil {
		return false, fmt.Errorf("write backup: %w", err)
	}
	return true, nil
}

// RestoreBackup writes the backup of path over path and removes it.
// Returns false when there is no backup.
func RestoreBackup(ctx context.Context, path string) (bool, error) {
	backup := BackupPath(path)

	content, snap, err := Read(ctx, backup)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := WriteAtomic(ctx, path, content, snap.Mode); err != nil {
		return false, fmt.Errorf("restore backup: %w", err)
	}
	if err := os.Remove(backup); err != nil {
		return true, fmt.Errorf("remove backup: %w", err)
	}
	return true, nil
}
