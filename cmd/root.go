package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"debian-bootstrap/internal/bootstrap"
	"debian-bootstrap/internal/config"
	"debian-bootstrap/internal/logger"
)

// debug indicates whether debug logging should be enabled.
// It can be toggled via the `--debug` command-line flag.
var debug bool

// configPath optionally points at a YAML file overlaid on the built-in defaults.
var configPath string

// rename is the new hostname given with `--rename`; empty keeps the current one.
var rename string

// rootCmd is the whole CLI: debian-bootstrap has no subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debian-bootstrap [--rename <hostname>]",
		Short: "Bootstrap a fresh Debian host for its operator",
		Long: "Installs base packages and Docker, grants the invoking sudo user passwordless sudo,\n" +
			"hardens sshd and sets up zsh with oh-my-zsh for root and the operator.\n" +
			"Run it through sudo from the operator's account.",

		// Positional arguments are never valid; report the first one like an unknown flag.
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown option: %s", args[0])
			}
			return nil
		},

		SilenceUsage:  true,
		SilenceErrors: true,

		// PersistentPreRun initializes the logger before anything else runs.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(debug)
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				logger.Warn("[WARN] Standard input is not a terminal; the confirmation answer will be read from it anyway.\n")
			}
			return bootstrap.New(cfg).Run(cmd.Context(), bootstrap.Options{Rename: rename})
		},
	}

	cmd.Flags().StringVar(&rename, "rename", "", "Set a new hostname (RFC 1123) and update /etc/hosts")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file overriding the built-in defaults")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

// Execute runs the CLI. Any error is fatal: it is logged and the process exits non-zero.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Error("[ERROR] %v\n", err)
		os.Exit(1)
	}
}
