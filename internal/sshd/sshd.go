// Package sshd hardens the OpenSSH daemon configuration.
package sshd

import (
	"context"
	"fmt"
	"os"
	"time"

	"debian-bootstrap/internal/config"
	"debian-bootstrap/internal/fsutil"
	"debian-bootstrap/internal/installer"
	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/system"
	"debian-bootstrap/internal/textfile"
)

// Hardener edits sshd_config and restarts the daemon.
type Hardener struct {
	Apt    installer.Apt
	Runner system.Runner
	Config config.SSH
	Now    func() time.Time
}

// Apply sets every directive plus AllowUsers on content and returns the result.
// The allow-list is overwritten with exactly operator; previous entries are discarded.
func Apply(content string, directives []config.Directive, operator string) string {
	f := textfile.Parse(content, textfile.WithBoundary(textfile.IsMatchBlock))
	for _, d := range directives {
		f.SetDirective(d.Key, d.Value)
	}
	f.SetDirective("AllowUsers", operator)
	return f.String()
}

// Harden installs the server if needed, backs up and rewrites the configuration,
// validates it and restarts the service. It returns the backup path.
func (h Hardener) Harden(ctx context.Context, operator string) (string, error) {
	// The server package ships the config file we are about to edit
	if err := h.Apt.Ensure(ctx, h.Config.Package); err != nil {
		return "", err
	}

	// Read the current configuration
	path := h.Config.ConfigPath
	original, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Keep a timestamped copy before touching anything
	backup, err := fsutil.Backup(path, h.Now())
	if err != nil {
		return "", err
	}
	logger.Info("[INFO] Backed up %s to %s\n", path, backup)

	// Rewrite the directives; an unchanged file is not written back
	updated := Apply(string(original), h.Config.Directives, operator)
	if updated == string(original) {
		logger.Info("[INFO] %s already hardened\n", path)
	} else if err := fsutil.WriteFileAtomic(path, []byte(updated), 0); err != nil {
		return backup, err
	}
	for _, d := range h.Config.Directives {
		logger.Debug("[DEBUG] %s %s\n", d.Key, d.Value)
	}
	logger.Info("[INFO] SSH logins restricted to %s; root login disabled\n", operator)

	// Let sshd check the result before the daemon is restarted on it
	if err := h.validate(ctx, path, backup); err != nil {
		return backup, err
	}
	return backup, h.restart(ctx)
}

// validate runs sshd's own syntax check when the binary is available. A rejected
// configuration is rolled back from the backup so the daemon is never restarted on it.
func (h Hardener) validate(ctx context.Context, path, backup string) error {
	sshdBin, err := h.Runner.LookPath("sshd")
	if err != nil {
		logger.Debug("[DEBUG] sshd binary not on PATH; skipping config test\n")
		return nil
	}
	if _, err := h.Runner.Run(ctx, sshdBin, "-t", "-f", path); err != nil {
		if rerr := fsutil.CopyFile(backup, path, 0); rerr != nil {
			return fmt.Errorf("sshd rejected %s (%v) and restoring %s failed: %w", path, err, backup, rerr)
		}
		return fmt.Errorf("sshd rejected %s, restored from %s: %w", path, backup, err)
	}
	return nil
}

// restart is fatal on failure; only a missing service manager is tolerated.
func (h Hardener) restart(ctx context.Context) error {
	if !system.HasServiceManager(h.Runner) {
		logger.Warn("[WARN] No service manager detected; restart %s manually to apply the new configuration.\n", h.Config.Service)
		return nil
	}
	if _, err := h.Runner.Run(ctx, "systemctl", "restart", h.Config.Service); err != nil {
		return fmt.Errorf("failed to restart %s: %w", h.Config.Service, err)
	}
	logger.Info("[INFO] Restarted %s\n", h.Config.Service)
	return nil
}
