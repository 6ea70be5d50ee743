// Package bootstrap runs the host setup pipeline from preflight to shell configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"debian-bootstrap/internal/access"
	"debian-bootstrap/internal/account"
	"debian-bootstrap/internal/config"
	"debian-bootstrap/internal/hostname"
	"debian-bootstrap/internal/installer"
	"debian-bootstrap/internal/logger"
	"debian-bootstrap/internal/preflight"
	"debian-bootstrap/internal/shellenv"
	"debian-bootstrap/internal/sshd"
	"debian-bootstrap/internal/state"
	"debian-bootstrap/internal/system"
)

// Options are the per-invocation choices from the command line.
type Options struct {
	Rename string // new hostname; empty leaves the hostname alone
}

// Bootstrapper wires the steps to the host. Zero-valued hooks fall back to the real system.
type Bootstrapper struct {
	Runner system.Runner
	Config config.Config
	Cloner account.Cloner
	In     io.Reader
	Out    io.Writer

	Now     func() time.Time
	Geteuid func() int
	Getenv  func(string) string
	Lookup  func(name string) (account.Account, error)

	// Hostname hooks, passed through to hostname.Renamer.
	CurrentHostname func() (string, error)
	SetKernelName   func(string) error
}

// New returns a Bootstrapper acting on the local host.
func New(cfg config.Config) Bootstrapper {
	return Bootstrapper{
		Runner:  system.ExecRunner{},
		Config:  cfg,
		Cloner:  account.GitCloner{},
		In:      os.Stdin,
		Out:     os.Stdout,
		Now:     time.Now,
		Geteuid: os.Geteuid,
		Getenv:  os.Getenv,
		Lookup: func(name string) (account.Account, error) {
			return account.Lookup(name, cfg.Paths.Passwd)
		},
	}
}

// Run executes the whole pipeline. The first failing step aborts the run; steps
// already completed stay applied and a re-run picks up from the host's state.
func (b Bootstrapper) Run(ctx context.Context, opts Options) error {
	cfg := b.Config

	// Preflight: nothing on the host is touched until all of these pass
	if err := preflight.RequireRoot(b.Geteuid()); err != nil {
		return err
	}
	release, err := preflight.ReadOSRelease(cfg.Paths.OSRelease)
	if err != nil {
		return err
	}
	if err := preflight.RequireDebian(release); err != nil {
		return err
	}
	name, err := preflight.OperatorFromEnv(b.Getenv)
	if err != nil {
		return err
	}
	if opts.Rename != "" {
		if err := hostname.Validate(opts.Rename); err != nil {
			return err
		}
	}

	// Resolve both accounts the shell step configures
	operator, err := b.Lookup(name)
	if err != nil {
		return err
	}
	if operator.IsRoot() {
		return preflight.ErrNoOperator
	}
	root, err := b.Lookup("root")
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Operator %s (uid %d, home %s) on %s\n", operator.Name, operator.UID, operator.HomeDir, release.PrettyName)

	// Load the journal of earlier runs and ask for confirmation
	journal, err := state.Load(cfg.Paths.State)
	if err != nil {
		return err
	}
	if !journal.LastRun.IsZero() {
		logger.Info("[INFO] Previously bootstrapped for %s at %s\n", journal.Operator, journal.LastRun.Format(time.RFC3339))
	}
	if err := preflight.Confirm(b.In, b.Out, b.summary(operator, opts)); err != nil {
		return err
	}

	apt := installer.Apt{Runner: b.Runner}

	if opts.Rename != "" {
		renamer := hostname.Renamer{
			Runner:       b.Runner,
			HostsPath:    cfg.Paths.Hosts,
			HostnamePath: cfg.Paths.Hostname,
			Now:          b.Now,
			Current:      b.CurrentHostname,
			SetKernel:    b.SetKernelName,
		}
		backup, err := renamer.Rename(ctx, opts.Rename)
		journal.Record(backup)
		if err != nil {
			return err
		}
		journal.Hostname = opts.Rename
	}

	// Base packages, then the container runtime from its vendor repository
	if err := apt.Ensure(ctx, cfg.Packages...); err != nil {
		return err
	}

	docker := installer.DockerRepo{Apt: apt, Runner: b.Runner, Config: cfg.Docker, Release: release}
	if err := docker.Configure(ctx); err != nil {
		return err
	}

	// Passwordless sudo and docker group membership for the operator
	granter := access.Granter{Apt: apt, Runner: b.Runner, SudoersDir: cfg.Paths.SudoersDir}
	if err := granter.GrantSudo(ctx, operator); err != nil {
		return err
	}
	if err := granter.GrantGroup(ctx, operator, cfg.Docker.Group); err != nil {
		return err
	}

	// Lock SSH down to the operator
	hardener := sshd.Hardener{Apt: apt, Runner: b.Runner, Config: cfg.SSH, Now: b.Now}
	backup, err := hardener.Harden(ctx, operator.Name)
	journal.Record(backup)
	if err != nil {
		return err
	}

	// Shell environment for root (as itself) and the operator (files handed over afterwards)
	shell := shellenv.Configurator{Runner: b.Runner, Config: cfg.Shell}
	for _, acct := range []account.Account{root, operator} {
		if err := shell.Configure(ctx, account.For(acct, b.Cloner)); err != nil {
			return err
		}
	}

	// Record the run; a failed save only warns
	journal.LastRun = b.Now()
	journal.Operator = operator.Name
	if err := state.Save(cfg.Paths.State, journal); err != nil {
		logger.Warn("[WARN] %v\n", err)
	}

	logger.Info("[INFO] Bootstrap complete. Log in again as %s to pick up the new shell and group membership.\n", operator.Name)
	return nil
}

// summary lists every change the run may make, for the confirmation gate.
func (b Bootstrapper) summary(operator account.Account, opts Options) []string {
	cfg := b.Config
	var directives []string
	for _, d := range cfg.SSH.Directives {
		directives = append(directives, d.Key+" "+d.Value)
	}

	var lines []string
	if opts.Rename != "" {
		lines = append(lines, fmt.Sprintf("Rename this host to %s (rewrites %s, keeps a backup)", opts.Rename, cfg.Paths.Hosts))
	}
	lines = append(lines,
		"Install packages: "+strings.Join(cfg.Packages, " "),
		fmt.Sprintf("Add the Docker apt repository (%s) and install %s", cfg.Docker.SourceFile, strings.Join(cfg.Docker.Packages, " ")),
		fmt.Sprintf("Grant %s passwordless sudo via %s/90-%s-nopasswd", operator.Name, cfg.Paths.SudoersDir, operator.Name),
		fmt.Sprintf("Add %s to the %s group", operator.Name, cfg.Docker.Group),
		fmt.Sprintf("Edit %s: %s, AllowUsers %s (no other account may log in over SSH)", cfg.SSH.ConfigPath, strings.Join(directives, ", "), operator.Name),
		fmt.Sprintf("Install %s with theme %s for root and %s, and make %s their login shell", cfg.Shell.Framework.Name, cfg.Shell.Theme, operator.Name, cfg.Shell.Binary),
	)
	return lines
}
