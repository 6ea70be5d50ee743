// Package access grants the operator passwordless sudo and container-runtime group membership.
package access

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"debian-bootstrap/internal/account"
	"debian-bootstrap/internal/installer"
	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/system"
)

// ErrRootAccount is returned when a grant targets root, which already has full access.
var ErrRootAccount = errors.New("refusing to grant access to root: it already has full privileges")

// Granter applies access grants for an operator account.
type Granter struct {
	Apt        installer.Apt
	Runner     system.Runner
	SudoersDir string
}

// SudoersPath is the per-account fragment, e.g. /etc/sudoers.d/90-alice-nopasswd.
func (g Granter) SudoersPath(name string) string {
	return filepath.Join(g.SudoersDir, fmt.Sprintf("90-%s-nopasswd", name))
}

// SudoersRule is the single rule written to the fragment.
func SudoersRule(name string) string {
	return fmt.Sprintf("%s ALL=(ALL) NOPASSWD: ALL\n", name)
}

// GrantSudo installs the NOPASSWD fragment for acct. A new or changed fragment is
// staged under a name sudo ignores, checked with visudo and only then renamed into
// place, so sudo never reads a fragment visudo rejected.
func (g Granter) GrantSudo(ctx context.Context, acct account.Account) error {
	if acct.IsRoot() {
		return ErrRootAccount
	}
	// visudo ships with sudo, make sure both are there
	if err := g.Apt.Ensure(ctx, "sudo"); err != nil {
		return err
	}

	if err := os.MkdirAll(g.SudoersDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", g.SudoersDir, err)
	}
	path := g.SudoersPath(acct.Name)
	rule := SudoersRule(acct.Name)

	// Same rule already live: fix its mode and re-check it, nothing to replace
	if current, err := os.ReadFile(path); err == nil && string(current) == rule {
		logger.Info("[INFO] %s already grants passwordless sudo to %s\n", path, acct.Name)
		if err := os.Chmod(path, 0o440); err != nil {
			return fmt.Errorf("failed to chmod %s: %w", path, err)
		}
		if _, err := g.Runner.Run(ctx, "visudo", "-cf", path); err != nil {
			return fmt.Errorf("sudoers fragment %s failed validation: %w", path, err)
		}
		return nil
	}

	staged, err := g.stage(path, rule)
	if err != nil {
		return err
	}
	if _, err := g.Runner.Run(ctx, "visudo", "-cf", staged); err != nil {
		removeStaged(staged)
		return fmt.Errorf("sudoers fragment for %s failed validation: %w", acct.Name, err)
	}
	if err := os.Rename(staged, path); err != nil {
		removeStaged(staged)
		return fmt.Errorf("failed to install %s: %w", path, err)
	}

	logger.Info("[INFO] Granted passwordless sudo to %s (%s)\n", acct.Name, path)
	return nil
}

// stage writes rule to a temp file next to path. The name starts with a dot and
// contains one, and sudo's includedir skips both.
func (g Granter) stage(path, rule string) (string, error) {
	tmp, err := os.CreateTemp(g.SudoersDir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to stage sudoers fragment: %w", err)
	}
	name := tmp.Name()

	// Write the rule, then drop the mode to what sudo expects of its fragments
	if _, err := tmp.WriteString(rule); err != nil {
		tmp.Close()
		removeStaged(name)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		removeStaged(name)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(name, 0o440); err != nil {
		removeStaged(name)
		return "", fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	logger.Debug("[DEBUG] Staged sudoers fragment at %s\n", name)
	return name, nil
}

func removeStaged(name string) {
	if err := os.Remove(name); err != nil {
		logger.Error("[ERROR] Failed to remove staged fragment %s: %v\n", name, err)
	}
}

// GrantGroup creates group if needed and adds acct to it.
// Membership applies to new login sessions only.
func (g Granter) GrantGroup(ctx context.Context, acct account.Account, group string) error {
	if acct.IsRoot() {
		return ErrRootAccount
	}

	if _, err := g.Runner.Run(ctx, "getent", "group", group); err != nil {
		logger.Info("[INFO] Creating group %s\n", group)
		if _, err := g.Runner.Run(ctx, "groupadd", group); err != nil {
			return fmt.Errorf("failed to create group %s: %w", group, err)
		}
	}

	out, err := g.Runner.Run(ctx, "id", "-nG", acct.Name)
	if err != nil {
		return fmt.Errorf("failed to read groups of %s: %w", acct.Name, err)
	}
	for _, member := range strings.Fields(string(out)) {
		if member == group {
			logger.Info("[INFO] %s is already in group %s\n", acct.Name, group)
			return nil
		}
	}

	if _, err := g.Runner.Run(ctx, "usermod", "-aG", group, acct.Name); err != nil {
		return fmt.Errorf("failed to add %s to group %s: %w", acct.Name, group, err)
	}
	logger.Info("[INFO] Added %s to group %s\n", acct.Name, group)
	logger.Warn("[WARN] %s must log out and back in (or run `newgrp %s`) for the membership to take effect.\n", acct.Name, group)
	return nil
}
