// Package deployer runs the deployment pipeline: it validates the source tree
// and the container toolchain, scaffolds the deployment directory, completes
// the environment file with the operator, rebuilds the image and restarts the
// service stack.
package deployer

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/artpar/hajimi-deploy/internal/core/compose"
	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/prompt"
	"github.com/artpar/hajimi-deploy/internal/shell/runtime"
	"github.com/artpar/hajimi-deploy/internal/shell/style"
)

// Config holds the tunables of one run.
type Config struct {
	// StatusDelay is the pause between compose up and the status display.
	// Default: 5 seconds.
	StatusDelay time.Duration

	// NonInteractive takes credentials from configuration and skips the
	// optional integrations instead of prompting.
	NonInteractive bool

	// GitHubTokens is the credential used in non-interactive mode.
	GitHubTokens string

	// AllowUnrecognizedTokens accepts, in non-interactive mode, tokens that
	// do not carry a known GitHub prefix.
	AllowUnrecognizedTokens bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{StatusDelay: 5 * time.Second}
}

// Options wires a Deployer to its collaborators.
type Options struct {
	Context  deploy.Context
	Runtime  runtime.ContainerRuntime
	Prompter prompt.Prompter
	Console  *style.Console
	Config   Config
	Logger   *slog.Logger

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Deployer executes the pipeline against one deployment directory.
type Deployer struct {
	dc       deploy.Context
	layout   deploy.Layout
	runtime  runtime.ContainerRuntime
	prompter prompt.Prompter
	console  *style.Console
	config   Config
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	tracker  *deploy.Tracker
	project  runtime.ComposeProject
	manifest *compose.Manifest
	actions  []Action
}

// New creates a Deployer. Console and Logger default to stdout and the
// default slog logger.
func New(opts Options) *Deployer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Console == nil {
		opts.Console = style.NewConsole(os.Stdout)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	d := &Deployer{
		dc:       opts.Context,
		layout:   opts.Context.Layout(),
		runtime:  opts.Runtime,
		prompter: opts.Prompter,
		console:  opts.Console,
		config:   opts.Config,
		logger:   opts.Logger.With("component", "deployer"),
		sleep:    opts.Sleep,
		tracker:  deploy.NewTracker(),
	}
	d.project = runtime.ComposeProject{
		Dir:  d.dc.DeployDir,
		File: d.dc.ComposeFile,
		Name: compose.ProjectName(d.dc.DeployDir),
	}
	return d
}

// Stage returns the lifecycle stage reached so far.
func (d *Deployer) Stage() deploy.Stage {
	return d.tracker.Current()
}

// Project returns the compose project the lifecycle operates on.
func (d *Deployer) Project() runtime.ComposeProject {
	return d.project
}

// Actions returns what the last scaffold did to each managed resource.
func (d *Deployer) Actions() []Action {
	return append([]Action(nil), d.actions...)
}

func sleepContext(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
