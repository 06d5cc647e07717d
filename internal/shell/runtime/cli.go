package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/docker"
)

const maxOutputBytes = 64 * 1024 // 64KB

// =============================================================================
// Command Execution
// =============================================================================

// Command is one external process invocation.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stream io.Writer // Receives live output when set
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandRunner executes a Command.
type CommandRunner func(ctx context.Context, cmd Command) (*Result, error)

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// ExecCommand runs cmd as a subprocess and captures combined output.
func ExecCommand(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var buf bytes.Buffer
	var out io.Writer = &buf
	if cmd.Stream != nil {
		out = io.MultiWriter(&buf, cmd.Stream)
	}
	c.Stdout = out
	c.Stderr = out

	start := time.Now()
	err := c.Run()

	output := buf.String()
	if len(output) > maxOutputBytes {
		output = output[len(output)-maxOutputBytes:]
	}

	result := &Result{
		Output:   output,
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil // non-zero exit is not a runner error
		}
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

// =============================================================================
// CLI Runtime
// =============================================================================

// Options configures a CLIRuntime.
type Options struct {
	Docker   docker.Client // Optional; enables SDK ping and queries
	Stream   io.Writer     // Live output of build and up
	Logger   *slog.Logger
	Run      CommandRunner // Defaults to ExecCommand
	LookPath LookPathFunc  // Defaults to exec.LookPath
}

// CLIRuntime implements ContainerRuntime with the docker CLI and compose,
// using the Docker SDK where a query does not need a subprocess.
type CLIRuntime struct {
	docker   docker.Client
	stream   io.Writer
	logger   *slog.Logger
	run      CommandRunner
	lookPath LookPathFunc
	compose  []string
}

// NewCLIRuntime creates a runtime. Until LocateTools runs, compose commands
// use the "docker compose" plugin.
func NewCLIRuntime(opts Options) *CLIRuntime {
	r := &CLIRuntime{
		docker:   opts.Docker,
		stream:   opts.Stream,
		logger:   opts.Logger,
		run:      opts.Run,
		lookPath: opts.LookPath,
		compose:  []string{"docker", "compose"},
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.run == nil {
		r.run = ExecCommand
	}
	if r.lookPath == nil {
		r.lookPath = exec.LookPath
	}
	return r
}

// ComposeCommand returns the compose invocation in use.
func (r *CLIRuntime) ComposeCommand() []string {
	return append([]string(nil), r.compose...)
}

// LocateTools checks for docker and picks a compose tool: the docker compose
// plugin when it answers, otherwise the standalone docker-compose binary.
func (r *CLIRuntime) LocateTools(ctx context.Context) error {
	if _, err := r.lookPath("docker"); err != nil {
		return &ToolError{Tool: "docker", Err: ErrToolNotFound}
	}

	res, err := r.exec(ctx, Command{Name: "docker", Args: []string{"compose", "version"}})
	if err == nil && res.Succeeded() {
		r.compose = []string{"docker", "compose"}
		return nil
	}

	if _, err := r.lookPath("docker-compose"); err == nil {
		r.compose = []string{"docker-compose"}
		return nil
	}

	return &ToolError{Tool: "docker compose", Err: ErrToolNotFound}
}

// DaemonReachable pings the daemon through the SDK, falling back to
// "docker info" when no SDK client is available or the ping fails.
func (r *CLIRuntime) DaemonReachable(ctx context.Context) (*Result, error) {
	if r.docker != nil {
		start := time.Now()
		err := r.docker.Ping(ctx)
		if err == nil {
			return &Result{ExitCode: 0, Output: "ping ok", Duration: time.Since(start)}, nil
		}
		r.logger.Debug("sdk ping failed, falling back to docker info", "error", err)
	}
	return r.exec(ctx, Command{Name: "docker", Args: []string{"info", "--format", "{{.ServerVersion}}"}})
}

// BuildImage runs docker build with the source tree as the build context.
func (r *CLIRuntime) BuildImage(ctx context.Context, req BuildRequest) (*Result, error) {
	return r.exec(ctx, Command{
		Name:   "docker",
		Args:   []string{"build", "-t", req.Tag, req.ContextDir},
		Dir:    req.ContextDir,
		Stream: r.stream,
	})
}

// ListImages returns local images matching reference.
func (r *CLIRuntime) ListImages(ctx context.Context, reference string) ([]docker.ImageInfo, error) {
	if r.docker != nil {
		return r.docker.ListImages(ctx, reference)
	}

	res, err := r.exec(ctx, Command{
		Name: "docker",
		Args: []string{"image", "ls", "--format", "{{.ID}}\t{{.Repository}}:{{.Tag}}", reference},
	})
	if err != nil {
		return nil, err
	}
	if !res.Succeeded() {
		return nil, docker.NewDockerError("ListImages", "image", reference, strings.TrimSpace(res.Output), nil)
	}
	return parseImageLines(res.Output), nil
}

// ComposeUp starts the stack detached.
func (r *CLIRuntime) ComposeUp(ctx context.Context, p ComposeProject) (*Result, error) {
	return r.exec(ctx, r.composeCommand(p, true, "up", "-d"))
}

// ComposeDown stops and removes the stack's containers and networks.
func (r *CLIRuntime) ComposeDown(ctx context.Context, p ComposeProject) (*Result, error) {
	return r.exec(ctx, r.composeCommand(p, true, "down", "--remove-orphans"))
}

// ComposeStatus returns compose ps output.
func (r *CLIRuntime) ComposeStatus(ctx context.Context, p ComposeProject) (*Result, error) {
	return r.exec(ctx, r.composeCommand(p, false, "ps"))
}

// ComposeState classifies the stack from its containers. The SDK label query
// is used when possible; otherwise compose ps answers.
func (r *CLIRuntime) ComposeState(ctx context.Context, p ComposeProject) (deploy.ServiceState, error) {
	if r.docker != nil && p.Name != "" {
		containers, err := r.docker.ListProjectContainers(ctx, p.Name)
		if err == nil {
			return stateFromContainers(containers), nil
		}
		r.logger.Debug("sdk container query failed, falling back to compose ps", "project", p.Name, "error", err)
	}

	running, err := r.composeIDs(ctx, p, "ps", "-q")
	if err != nil {
		return "", err
	}
	if running {
		return deploy.ServiceRunning, nil
	}
	exists, err := r.composeIDs(ctx, p, "ps", "-a", "-q")
	if err != nil {
		return "", err
	}
	if exists {
		return deploy.ServiceStopped, nil
	}
	return deploy.ServiceAbsent, nil
}

// composeIDs runs a quiet compose ps and reports whether it listed anything.
func (r *CLIRuntime) composeIDs(ctx context.Context, p ComposeProject, args ...string) (bool, error) {
	res, err := r.exec(ctx, r.composeCommand(p, false, args...))
	if err != nil {
		return false, err
	}
	if !res.Succeeded() {
		return false, docker.NewDockerError("ComposeState", "container", p.Name, strings.TrimSpace(res.Output), nil)
	}
	return strings.TrimSpace(res.Output) != "", nil
}

func (r *CLIRuntime) composeCommand(p ComposeProject, stream bool, args ...string) Command {
	cmdArgs := append([]string(nil), r.compose[1:]...)
	if p.File != "" {
		cmdArgs = append(cmdArgs, "-f", p.File)
	}
	if p.Name != "" {
		cmdArgs = append(cmdArgs, "-p", p.Name)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := Command{Name: r.compose[0], Args: cmdArgs, Dir: p.Dir}
	if stream {
		cmd.Stream = r.stream
	}
	return cmd
}

func (r *CLIRuntime) exec(ctx context.Context, cmd Command) (*Result, error) {
	r.logger.Debug("running command", "command", cmd.String(), "dir", cmd.Dir)
	res, err := r.run(ctx, cmd)
	if res != nil {
		r.logger.Debug("command finished",
			"command", cmd.String(),
			"exit_code", res.ExitCode,
			"duration", res.Duration,
		)
	}
	return res, err
}

// =============================================================================
// Helpers
// =============================================================================

func stateFromContainers(containers []docker.ContainerInfo) deploy.ServiceState {
	if len(containers) == 0 {
		return deploy.ServiceAbsent
	}
	for _, c := range containers {
		if c.Status.IsActive() {
			return deploy.ServiceRunning
		}
	}
	return deploy.ServiceStopped
}

func parseImageLines(output string) []docker.ImageInfo {
	var images []docker.ImageInfo
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, tag, _ := strings.Cut(line, "\t")
		info := docker.ImageInfo{ID: id}
		if tag != "" {
			info.Tags = []string{tag}
		}
		images = append(images, info)
	}
	return images
}
