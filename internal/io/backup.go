package ioutils

import (
	"os"
)

// DefaultBackupExt is appended to a file path to name its backup.
const DefaultBackupExt = ".bak"

// BackupManager keeps a copy of a file as it was before the first mutation.
//
// A backup is taken only once: later mutations never refresh it, so the
// backup always holds the content found before the first change. Restore
// copies that content back, which is the only undo path for song and
// playlist rewrites.
//
// Example:
//
//	backups := NewBackupManager(true)
//	if err := backups.BackupIfMissing(path); err != nil {
//	    return err
//	}
//	// mutate path ...
//	restored, err := backups.Restore(path, false)
type BackupManager struct {
	enabled bool
	ext     string
}

// NewBackupManager creates a BackupManager. A disabled manager never writes
// backups but can still restore existing ones.
func NewBackupManager(enabled bool) *BackupManager {
	return &BackupManager{
		enabled: enabled,
		ext:     DefaultBackupExt,
	}
}

// BackupPath returns the backup file path for path.
func (b *BackupManager) BackupPath(path string) string {
	return path + b.ext
}

// BackupIfMissing copies path to its backup path if path exists and no
// backup exists yet.
func (b *BackupManager) BackupIfMissing(path string) error {
	if !b.enabled {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	backup := b.BackupPath(path)
	if Exists(backup) {
		return nil
	}

	return CopyFile(path, backup)
}

// Restore copies the backup of path over path. If deleteBackup is true the
// backup file is removed afterwards. It returns false when there is no
// backup to restore.
func (b *BackupManager) Restore(path string, deleteBackup bool) (bool, error) {
	backup := b.BackupPath(path)
	if _, err := os.Stat(backup); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if err := CopyFile(backup, path); err != nil {
		return false, err
	}

	if deleteBackup {
		if err := os.Remove(backup); err != nil {
			return true, err
		}
	}

	return true, nil
}
