package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"debian-bootstrap/internal/config"
	"debian-bootstrap/internal/fsutil"
	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/preflight"
	"debian-bootstrap/internal/system"
)

// ErrNoCodename is returned when os-release carries no codename to build the repository line from.
var ErrNoCodename = errors.New("cannot determine the distribution codename from os-release")

// DockerRepo configures the vendor apt repository for the container runtime and installs it.
type DockerRepo struct {
	Apt     Apt
	Runner  system.Runner
	Config  config.Docker
	Release preflight.OSRelease
}

// RepoURL is the vendor repository for this distribution.
func (d DockerRepo) RepoURL() string {
	return strings.TrimSuffix(d.Config.BaseURL, "/") + "/" + d.Release.Distribution()
}

// SourceLine renders the one-line apt source definition.
func (d DockerRepo) SourceLine(arch string) string {
	return fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s %s\n",
		arch, d.Config.Keyring, d.RepoURL(), d.Release.Codename(), d.Config.Channel)
}

// Configure adds the signed repository and installs the runtime. It does nothing when
// the runtime's primary package is already installed.
func (d DockerRepo) Configure(ctx context.Context) error {
	// Both tools must be present before anything is changed
	if err := requireTools(d.Runner, "fetch and convert the repository signing key", "curl", "gpg"); err != nil {
		return err
	}
	if d.Release.Codename() == "" {
		return ErrNoCodename
	}

	// An installed runtime means the repository was set up on an earlier run
	primary := d.Config.Packages[0]
	if d.Apt.Installed(ctx, primary) {
		logger.Info("[INFO] %s is already installed. Skipping repository setup.\n", primary)
		return nil
	}

	// Ensure the keyring directory exists and is world-readable
	if err := os.MkdirAll(d.Config.KeyringDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Config.KeyringDir, err)
	}
	if err := os.Chmod(d.Config.KeyringDir, 0o755); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", d.Config.KeyringDir, err)
	}

	// Create a temporary directory for the downloaded key; it is removed on every path
	tmp, err := os.MkdirTemp("", "docker-key-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(tmp); rerr != nil {
			logger.Warn("[WARN] Failed to remove %s: %v\n", tmp, rerr)
		}
	}()

	if err := d.installKeyring(ctx, tmp); err != nil {
		return err
	}

	// Write the source line for this machine's architecture
	arch, err := d.Runner.Run(ctx, "dpkg", "--print-architecture")
	if err != nil {
		return fmt.Errorf("failed to detect package architecture: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.Config.SourceFile), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(d.Config.SourceFile), err)
	}
	line := d.SourceLine(strings.TrimSpace(string(arch)))
	if err := fsutil.WriteFileAtomic(d.Config.SourceFile, []byte(line), 0o644); err != nil {
		return err
	}
	logger.Info("[INFO] Wrote %s: %s", d.Config.SourceFile, line)

	// Install the runtime from the new repository and start it
	if err := d.Apt.Ensure(ctx, d.Config.Packages...); err != nil {
		return err
	}

	d.startService(ctx)
	return nil
}

// installKeyring downloads the vendor key into tmp, validates it and writes the
// binary keyring world-readable.
func (d DockerRepo) installKeyring(ctx context.Context, tmp string) error {
	keyURL := d.RepoURL() + "/" + d.Config.KeyURLPath
	downloaded := filepath.Join(tmp, "docker.asc")
	if err := downloadFile(ctx, d.Runner, keyURL, downloaded); err != nil {
		return err
	}

	data, err := os.ReadFile(downloaded)
	if err != nil {
		return fmt.Errorf("failed to read downloaded key: %w", err)
	}
	armored, err := ValidatePublicKey(data)
	if err != nil {
		return fmt.Errorf("%s: %w", keyURL, err)
	}

	if armored {
		if _, err := d.Runner.Run(ctx, "gpg", "--batch", "--yes", "--dearmor", "-o", d.Config.Keyring, downloaded); err != nil {
			return fmt.Errorf("failed to convert signing key: %w", err)
		}
	} else if err := fsutil.CopyFile(downloaded, d.Config.Keyring, 0o644); err != nil {
		return fmt.Errorf("failed to install signing key: %w", err)
	}

	if err := os.Chmod(d.Config.Keyring, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", d.Config.Keyring, err)
	}
	logger.Info("[INFO] Installed signing key %s\n", d.Config.Keyring)
	return nil
}

// startService enables and starts the runtime. Failures only warn: without systemd
// (containers, chroots) the packages are still usable.
func (d DockerRepo) startService(ctx context.Context) {
	if !system.HasServiceManager(d.Runner) {
		logger.Warn("[WARN] No service manager detected; start %s manually.\n", d.Config.Service)
		return
	}
	if _, err := d.Runner.Run(ctx, "systemctl", "enable", "--now", d.Config.Service); err != nil {
		logger.Warn("[WARN] Failed to enable/start %s: %v\n", d.Config.Service, err)
		return
	}
	logger.Info("[INFO] Enabled and started %s\n", d.Config.Service)
}
