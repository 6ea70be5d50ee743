// Package hostname renames the machine: kernel hostname, /etc/hostname and the
// 127.0.1.1 line of /etc/hosts are kept in agreement.
package hostname

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"debian-bootstrap/internal/fsutil"
	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/system"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid hostname")

const (
	maxNameLen  = 253
	maxLabelLen = 63
	loopbackIP  = "127.0.1.1"
)

// Validate applies RFC 1123 rules: dot-separated labels of 1-63 letters, digits and
// internal hyphens, at most 253 characters in total.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalid, len(name), maxNameLen)
	}
	for _, label := range strings.Split(name, ".") {
		if err := validateLabel(label); err != nil {
			return fmt.Errorf("%w: %q: %s", ErrInvalid, name, err)
		}
	}
	return nil
}

func validateLabel(label string) error {
	switch {
	case label == "":
		return errors.New("empty label")
	case len(label) > maxLabelLen:
		return fmt.Errorf("label %q longer than %d characters", label, maxLabelLen)
	case label[0] == '-' || label[len(label)-1] == '-':
		return fmt.Errorf("label %q starts or ends with a hyphen", label)
	}
	for _, r := range label {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return fmt.Errorf("label %q contains invalid character %q", label, r)
		}
	}
	return nil
}

// RewriteHosts points the single 127.0.1.1 entry at name. The first existing entry is
// replaced in place, any further ones are dropped, and the entry is appended if missing.
func RewriteHosts(content, name string) string {
	entry := loopbackIP + "\t" + name
	if short, _, ok := strings.Cut(name, "."); ok {
		entry += " " + short
	}

	var out []string
	found := false
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if content == "" {
		lines = nil
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != loopbackIP {
			out = append(out, line)
			continue
		}
		if !found {
			out = append(out, entry)
			found = true
		}
	}
	if !found {
		out = append(out, entry)
	}
	return strings.Join(out, "\n") + "\n"
}

// Renamer changes the host's network identity.
type Renamer struct {
	Runner       system.Runner
	HostsPath    string
	HostnamePath string
	Now          func() time.Time
	// Current and SetKernel default to os.Hostname and unix.Sethostname.
	Current   func() (string, error)
	SetKernel func(name string) error
}

// Rename validates name and applies it. It returns the hosts-file backup path, or ""
// when the host already carried that name.
func (r Renamer) Rename(ctx context.Context, name string) (string, error) {
	if err := Validate(name); err != nil {
		return "", err
	}

	current, err := r.current()
	if err != nil {
		return "", fmt.Errorf("failed to read current hostname: %w", err)
	}
	if current == name {
		logger.Info("[INFO] Hostname is already %s. Skipping.\n", name)
		return "", nil
	}

	backup, err := fsutil.Backup(r.HostsPath, r.Now())
	if err != nil {
		return "", err
	}
	logger.Info("[INFO] Backed up %s to %s\n", r.HostsPath, backup)

	if err := r.setHostname(ctx, name); err != nil {
		return backup, err
	}

	content, err := os.ReadFile(r.HostsPath)
	if err != nil {
		return backup, fmt.Errorf("failed to read %s: %w", r.HostsPath, err)
	}
	if err := fsutil.WriteFileAtomic(r.HostsPath, []byte(RewriteHosts(string(content), name)), 0); err != nil {
		return backup, err
	}

	logger.Info("[INFO] Renamed host %s -> %s\n", current, name)
	return backup, nil
}

func (r Renamer) current() (string, error) {
	if r.Current != nil {
		return r.Current()
	}
	return os.Hostname()
}

// setHostname prefers hostnamectl, which updates both the kernel and /etc/hostname.
// Without a running systemd the two are set individually.
func (r Renamer) setHostname(ctx context.Context, name string) error {
	if system.HasServiceManager(r.Runner) {
		if _, err := r.Runner.LookPath("hostnamectl"); err == nil {
			if _, err := r.Runner.Run(ctx, "hostnamectl", "set-hostname", name); err != nil {
				return fmt.Errorf("failed to set hostname: %w", err)
			}
			return nil
		}
	}

	setKernel := r.SetKernel
	if setKernel == nil {
		setKernel = func(n string) error { return unix.Sethostname([]byte(n)) }
	}
	if err := setKernel(name); err != nil {
		return fmt.Errorf("failed to set kernel hostname: %w", err)
	}
	if err := fsutil.WriteFileAtomic(r.HostnamePath, []byte(name+"\n"), 0o644); err != nil {
		return err
	}
	return nil
}
