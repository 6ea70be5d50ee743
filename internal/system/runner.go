// Package system wraps the external commands the bootstrap drives:
// apt, dpkg, systemctl, visudo, usermod and friends.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"debian-bootstrap/internal/logger"
)

// Runner executes external commands. Every call blocks until the command exits.
type Runner interface {
	// Run executes name with args and returns the combined stdout/stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct{}

// Run implements Runner. apt and dpkg are always run non-interactively.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s: %w\nOutput: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// LookPath implements Runner.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// SystemdRuntimeDir exists only while systemd is PID 1. Tests point it elsewhere.
var SystemdRuntimeDir = "/run/systemd/system"

// HasServiceManager reports whether systemctl is installed and systemd is actually running.
// Containers frequently ship the binary without a running manager.
func HasServiceManager(r Runner) bool {
	if _, err := r.LookPath("systemctl"); err != nil {
		return false
	}
	info, err := os.Stat(SystemdRuntimeDir)
	return err == nil && info.IsDir()
}
