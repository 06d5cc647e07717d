package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/deployer"
	"github.com/artpar/hajimi-deploy/internal/shell/docker"
	"github.com/artpar/hajimi-deploy/internal/shell/prompt"
	"github.com/artpar/hajimi-deploy/internal/shell/runtime"
	"github.com/artpar/hajimi-deploy/internal/shell/style"
)

// =============================================================================
// App
// =============================================================================

// App is one deployment run wired to the real terminal, filesystem and
// container toolchain.
type App struct {
	deployer *deployer.Deployer
	docker   docker.Client
	logger   *slog.Logger
}

// NewApp resolves the deployment context and builds the collaborators.
func NewApp(ctx context.Context, cfg *Config, logger *slog.Logger, stdin io.Reader, stdout io.Writer) (*App, error) {
	installDir, err := resolveInstallDir()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	dc := deploy.Resolve(installDir, workDir, deploy.ImageRef{Name: cfg.Image.Name, Tag: cfg.Image.Tag})

	// docker build and compose read the same daemon address as the SDK.
	if cfg.Docker.Host != "" {
		if err := os.Setenv("DOCKER_HOST", cfg.Docker.Host); err != nil {
			return nil, fmt.Errorf("set DOCKER_HOST: %w", err)
		}
	}

	app := &App{logger: logger}

	var sdk docker.Client
	if c, err := docker.NewDockerClient(ctx, cfg.Docker.Host); err != nil {
		logger.Warn("docker sdk unavailable, using the CLI only", "error", err)
	} else {
		sdk = c
		app.docker = c
	}

	console := style.NewConsole(stdout)
	rt := runtime.NewCLIRuntime(runtime.Options{
		Docker: sdk,
		Stream: console.Writer(),
		Logger: logger,
	})

	app.deployer = deployer.New(deployer.Options{
		Context:  dc,
		Runtime:  rt,
		Prompter: prompt.NewTerminal(stdin, stdout),
		Console:  console,
		Config: deployer.Config{
			StatusDelay:             cfg.Compose.StatusDelay,
			NonInteractive:          cfg.NonInteractive,
			GitHubTokens:            cfg.Credentials.GitHubTokens,
			AllowUnrecognizedTokens: cfg.Credentials.AllowUnrecognized,
		},
		Logger: logger,
	})

	return app, nil
}

// Run executes the deployment pipeline.
func (a *App) Run(ctx context.Context) error {
	return a.deployer.Run(ctx)
}

// Close releases the Docker SDK connection.
func (a *App) Close() {
	if a.docker == nil {
		return
	}
	if err := a.docker.Close(); err != nil {
		a.logger.Debug("closing docker client", "error", err)
	}
}

// resolveInstallDir returns the directory holding the real executable, so a
// symlinked binary still finds its source tree.
func resolveInstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
