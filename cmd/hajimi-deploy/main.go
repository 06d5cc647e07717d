package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/style"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		style.NewConsole(stderr).Error("%v", err)
		return deploy.ExitCodeOf(err)
	}
	return deploy.ExitSuccess
}

type rootOptions struct {
	configPath     string
	nonInteractive bool
	showVersion    bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hajimi-deploy",
		Short: "Deploy the hajimi-king scanner into the current directory",
		Long: `hajimi-deploy prepares the current directory as a deployment of the
hajimi-king scanner: it checks the bundled source tree and the docker
toolchain, creates data/, logs/, .env and data/queries.txt when missing,
asks for the GitHub tokens the scanner needs, then rebuilds the image and
restarts the compose stack.

Re-running it is safe; existing .env and queries files are never overwritten.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "hajimi-deploy %s (built %s)\n", Version, BuildTime)
				return nil
			}

			cfg, err := LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if cmd.Flags().Changed("non-interactive") {
				cfg.NonInteractive = opts.nonInteractive
			}

			logger := SetupLogger(cfg, stderr).With("run_id", uuid.NewString())
			logger.Info("starting hajimi-deploy",
				"version", Version,
				"config", opts.configPath,
				"non_interactive", cfg.NonInteractive,
			)

			app, err := NewApp(cmd.Context(), cfg, logger, stdin, stdout)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config file")
	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Take credentials from configuration instead of prompting")
	cmd.Flags().BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	return cmd
}
