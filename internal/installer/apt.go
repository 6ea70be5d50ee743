package installer

import (
	"context"
	"fmt"
	"strings"

	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/system"
)

// Apt installs packages through apt-get, consulting the dpkg database for what is already present.
type Apt struct {
	Runner system.Runner
}

// Installed reports whether dpkg records pkg as fully installed.
// dpkg-query exits non-zero for unknown packages; that is "not installed", not an error.
func (a Apt) Installed(ctx context.Context, pkg string) bool {
	out, err := a.Runner.Run(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	if err != nil {
		return false
	}
	// Status is "<want> <flag> <state>": only the state matters, so a held
	// package ("hold ok installed") counts as installed too
	return strings.HasSuffix(strings.TrimSpace(string(out)), "ok installed")
}

// Missing returns the subset of pkgs not yet installed, in input order.
func (a Apt) Missing(ctx context.Context, pkgs []string) (missing, present []string) {
	seen := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		// Duplicates in the request are checked once
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		if a.Installed(ctx, pkg) {
			present = append(present, pkg)
		} else {
			missing = append(missing, pkg)
		}
	}
	return missing, present
}

// Update refreshes the package index.
func (a Apt) Update(ctx context.Context) error {
	logger.Info("[INFO] Refreshing package index...\n")
	if _, err := a.Runner.Run(ctx, "apt-get", "update"); err != nil {
		return fmt.Errorf("failed to refresh package index: %w", err)
	}
	return nil
}

// Ensure installs whichever of pkgs are missing in a single apt-get transaction.
// The index is refreshed first so a fresh host can resolve them.
// A fully satisfied request runs neither the refresh nor the install.
func (a Apt) Ensure(ctx context.Context, pkgs ...string) error {
	// Split the request by what dpkg already knows about
	missing, present := a.Missing(ctx, pkgs)
	if len(present) > 0 {
		logger.Info("[INFO] Already installed: %s\n", strings.Join(present, " "))
	}
	if len(missing) == 0 {
		return nil
	}

	// Refresh once, then install everything missing in one transaction (no retry)
	if err := a.Update(ctx); err != nil {
		return err
	}
	logger.Info("[INFO] Installing: %s\n", strings.Join(missing, " "))
	args := append([]string{"install", "-y", "-q", "--no-install-recommends"}, missing...)
	if _, err := a.Runner.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("failed to install %s: %w", strings.Join(missing, " "), err)
	}
	logger.Info("[INFO] Installed %s\n", strings.Join(missing, " "))
	return nil
}
