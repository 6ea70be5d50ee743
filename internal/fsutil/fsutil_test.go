package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sshd_config")
	if err := os.WriteFile(src, []byte("PermitRootLogin yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 10, 16, 9, 5, 3, 0, time.UTC)
	dst, err := Backup(src, now)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if dst != src+".bak.20261016-090503" {
		t.Fatalf("backup path = %s", dst)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "PermitRootLogin yes\n" {
		t.Fatalf("backup content = %q, %v", data, err)
	}
	st, _ := os.Stat(dst)
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("backup mode = %v", st.Mode().Perm())
	}
}

func TestBackupMissingSource(t *testing.T) {
	if _, err := Backup(filepath.Join(t.TempDir(), "missing"), time.Now()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteFileAtomicKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	if err := os.WriteFile(path, []byte("old\n"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new\n"), 0); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, _ := os.ReadFile(path)
	st, _ := os.Stat(path)
	if string(data) != "new\n" || st.Mode().Perm() != 0o640 {
		t.Fatalf("content %q mode %v", data, st.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}
