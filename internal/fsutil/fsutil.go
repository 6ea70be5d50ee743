// Package fsutil holds the file helpers shared by the steps that edit host files.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupSuffixLayout is the timestamp format appended to backup copies.
const BackupSuffixLayout = "20060102-150405"

// Backup copies path to "<path>.bak.<timestamp>", preserving its mode, and returns the copy's path.
func Backup(path string, now time.Time) (string, error) {
	dst := fmt.Sprintf("%s.bak.%s", path, now.Format(BackupSuffixLayout))
	if err := CopyFile(path, dst, 0); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return dst, nil
}

// CopyFile copies a file from src to dst.
// A zero modeOverride preserves the source mode.
func CopyFile(src, dst string, modeOverride os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source failed: %w", err)
	}
	mode := stat.Mode().Perm()
	if modeOverride != 0 {
		mode = modeOverride
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return os.Chmod(dst, mode)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
// The existing file's mode is kept when perm is zero.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode().Perm()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
