package account

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"debian-bootstrap/internal/logger"
)

// Executor performs file-system work on behalf of an account. The Direct and
// Switched variants do exactly the same thing; they differ only in who ends up owning the result.
type Executor interface {
	Account() Account
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(path string, data []byte, perm os.FileMode) error
	Clone(ctx context.Context, url, dir string) error
}

// Direct acts as the invoking identity. Used when the target account is the one running the tool.
type Direct struct {
	Acct   Account
	Cloner Cloner
}

// Account implements Executor.
func (d Direct) Account() Account { return d.Acct }

// MkdirAll implements Executor.
func (d Direct) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFile implements Executor.
func (d Direct) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// Clone implements Executor.
func (d Direct) Clone(ctx context.Context, url, dir string) error {
	return d.Cloner.Clone(ctx, url, dir)
}

// Switched acts for another account: each operation runs, then every path it created
// is handed to the account's uid/gid so the result is indistinguishable from the
// account having done it itself.
type Switched struct {
	Acct   Account
	Cloner Cloner
	// Chown defaults to os.Lchown; tests replace it.
	Chown func(path string, uid, gid int) error
}

// Account implements Executor.
func (s Switched) Account() Account { return s.Acct }

func (s Switched) chown(path string) error {
	chown := s.Chown
	if chown == nil {
		chown = os.Lchown
	}
	if err := chown(path, s.Acct.UID, s.Acct.GID); err != nil {
		return fmt.Errorf("failed to chown %s to %s: %w", path, s.Acct.Name, err)
	}
	return nil
}

// MkdirAll implements Executor. Parent directories created along the way are chowned too.
func (s Switched) MkdirAll(path string, perm os.FileMode) error {
	missing := missingDirs(path)
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	for _, dir := range missing {
		if err := s.chown(dir); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile implements Executor.
func (s Switched) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return s.chown(path)
}

// Clone implements Executor. The whole checkout is chowned recursively.
func (s Switched) Clone(ctx context.Context, url, dir string) error {
	missing := missingDirs(filepath.Dir(dir))
	if err := s.Cloner.Clone(ctx, url, dir); err != nil {
		return err
	}
	for _, d := range missing {
		if err := s.chown(d); err != nil {
			return err
		}
	}
	logger.Debug("[DEBUG] Handing %s to %s\n", dir, s.Acct.Name)
	return filepath.WalkDir(dir, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return s.chown(path)
	})
}

// missingDirs lists path and its ancestors that do not exist yet, outermost first.
func missingDirs(path string) []string {
	var dirs []string
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		if _, err := os.Lstat(p); !errors.Is(err, fs.ErrNotExist) {
			break
		}
		dirs = append([]string{p}, dirs...)
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	return dirs
}

// For returns the executor for acct: Direct for root, Switched for everyone else.
func For(acct Account, cloner Cloner) Executor {
	if acct.IsRoot() {
		return Direct{Acct: acct, Cloner: cloner}
	}
	return Switched{Acct: acct, Cloner: cloner}
}
