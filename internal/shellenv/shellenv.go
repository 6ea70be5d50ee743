// Package shellenv installs the zsh framework, plugins and theme for an account
// and reconciles the account's profile with them.
package shellenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"debian-bootstrap/internal/account"
	"debian-bootstrap/internal/config"
	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/system"
	"debian-bootstrap/internal/textfile"
)

// Configurator applies the shell environment described by Config.
type Configurator struct {
	Runner system.Runner
	Config config.Shell
}

// MergePlugins returns existing followed by whichever required plugins it lacks,
// without duplicates. Custom plugins already in the profile are kept.
func MergePlugins(existing, required []string) []string {
	seen := make(map[string]bool, len(existing)+len(required))
	merged := make([]string, 0, len(existing)+len(required))
	for _, list := range [][]string{existing, required} {
		for _, p := range list {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			merged = append(merged, p)
		}
	}
	return merged
}

// Configure runs every step for the executor's account. Each step checks its own
// target first, so re-running converges without redoing work.
func (c Configurator) Configure(ctx context.Context, exec account.Executor) error {
	acct := exec.Account()
	fw := filepath.Join(acct.HomeDir, c.Config.Framework.Path)
	logger.Info("[INFO] Configuring shell environment for %s\n", acct.Name)

	// The framework is cloned before its custom directories exist: a clone refuses a non-empty target.
	if err := c.ensureCheckout(ctx, exec, c.Config.Framework, fw); err != nil {
		return err
	}
	for _, sub := range []string{"custom/plugins", "custom/themes"} {
		if err := exec.MkdirAll(filepath.Join(fw, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	profile := filepath.Join(acct.HomeDir, c.Config.ProfileName)
	if err := c.seedProfile(exec, fw, profile); err != nil {
		return err
	}

	for _, extra := range c.Config.Extras {
		if err := c.ensureCheckout(ctx, exec, extra, filepath.Join(fw, extra.Path)); err != nil {
			return err
		}
	}

	if err := c.reconcileProfile(exec, fw, profile); err != nil {
		return err
	}

	c.ensureLoginShell(ctx, acct)
	return nil
}

func (c Configurator) ensureCheckout(ctx context.Context, exec account.Executor, repo config.Repo, dir string) error {
	if exists(dir) {
		logger.Info("[INFO] %s already present at %s. Skipping.\n", repo.Name, dir)
		return nil
	}
	logger.Info("[INFO] Cloning %s into %s\n", repo.Name, dir)
	if err := exec.Clone(ctx, repo.URL, dir); err != nil {
		return fmt.Errorf("failed to install %s for %s: %w", repo.Name, exec.Account().Name, err)
	}
	return nil
}

// seedProfile copies the framework template only when the account has no profile yet.
func (c Configurator) seedProfile(exec account.Executor, fw, profile string) error {
	if exists(profile) {
		logger.Debug("[DEBUG] %s exists; keeping it\n", profile)
		return nil
	}
	template := filepath.Join(fw, c.Config.ProfileTemplate)
	data, err := os.ReadFile(template)
	if err != nil {
		return fmt.Errorf("failed to read profile template: %w", err)
	}
	if err := exec.WriteFile(profile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", profile, err)
	}
	logger.Info("[INFO] Created %s from %s\n", profile, template)
	return nil
}

// reconcileProfile sets ZSH and ZSH_THEME and unions the plugin list.
func (c Configurator) reconcileProfile(exec account.Executor, fw, profile string) error {
	data, err := os.ReadFile(profile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", profile, err)
	}
	f := textfile.Parse(string(data))

	// Point the profile at this account's framework checkout and the theme
	f.SetAssignment("ZSH", "export ZSH="+strconv.Quote(fw))
	f.SetAssignment("ZSH_THEME", "ZSH_THEME="+strconv.Quote(c.Config.Theme))

	// Union the plugin list; a profile without one gets the defaults first
	plugins, found := f.List("plugins")
	if !found {
		f.SetList("plugins", c.Config.DefaultPlugins)
		plugins = c.Config.DefaultPlugins
	}
	f.SetList("plugins", MergePlugins(plugins, c.Config.RequiredPlugins))

	updated := f.String()
	if updated == string(data) {
		logger.Info("[INFO] %s is up to date\n", profile)
		return nil
	}

	// Keep the profile's existing permissions
	mode := os.FileMode(0o644)
	if st, err := os.Stat(profile); err == nil {
		mode = st.Mode().Perm()
	}
	if err := exec.WriteFile(profile, []byte(updated), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", profile, err)
	}
	logger.Info("[INFO] Updated %s (theme %s)\n", profile, c.Config.Theme)
	return nil
}

// ensureLoginShell switches the account to the shell binary. Failure only warns:
// some environments (LDAP accounts, locked-down containers) forbid chsh.
func (c Configurator) ensureLoginShell(ctx context.Context, acct account.Account) {
	bin, err := c.Runner.LookPath(c.Config.Binary)
	if err != nil {
		logger.Warn("[WARN] %s not found on PATH; leaving login shell of %s unchanged\n", c.Config.Binary, acct.Name)
		return
	}
	if sameFile(bin, acct.Shell) {
		logger.Debug("[DEBUG] Login shell of %s is already %s\n", acct.Name, acct.Shell)
		return
	}
	if _, err := c.Runner.Run(ctx, "chsh", "-s", bin, acct.Name); err != nil {
		logger.Warn("[WARN] Failed to change login shell of %s to %s: %v\n", acct.Name, bin, err)
		return
	}
	logger.Info("[INFO] Login shell of %s set to %s\n", acct.Name, bin)
}

// sameFile compares paths after resolving them, so /bin/zsh and /usr/bin/zsh on a
// merged-/usr system count as equal.
func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
