// Package runtime drives the container toolchain the deployer depends on:
// the docker CLI for builds, the compose tool for the service stack and the
// Docker SDK for daemon queries.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/docker"
)

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of one external command. A non-zero exit is data,
// not an error; errors are reserved for commands that could not run at all.
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Succeeded reports whether the command exited with status 0.
func (r *Result) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

// =============================================================================
// Requests
// =============================================================================

// BuildRequest describes an image build.
type BuildRequest struct {
	ContextDir string // Build context; the source tree
	Tag        string // name:tag
}

// ComposeProject identifies the compose stack of a deploy directory.
type ComposeProject struct {
	Dir  string // Working directory compose runs from
	File string // Manifest path
	Name string // Project name that labels the containers
}

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrToolNotFound is returned when a required executable is not available.
	ErrToolNotFound = errors.New("tool not found on PATH")
)

// ToolError names the tool that could not be located.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Runtime Interface
// =============================================================================

// ContainerRuntime is everything the lifecycle needs from the container
// toolchain. Implementations return structured results so callers never
// inspect process state themselves.
type ContainerRuntime interface {
	// LocateTools checks that the build tool and a compose tool are installed.
	LocateTools(ctx context.Context) error

	// DaemonReachable runs a lightweight liveness probe against the daemon.
	DaemonReachable(ctx context.Context) (*Result, error)

	// BuildImage builds and tags an image.
	BuildImage(ctx context.Context, req BuildRequest) (*Result, error)

	// ListImages returns the local images matching reference.
	ListImages(ctx context.Context, reference string) ([]docker.ImageInfo, error)

	// ComposeUp starts the stack detached.
	ComposeUp(ctx context.Context, p ComposeProject) (*Result, error)

	// ComposeDown stops and removes the stack.
	ComposeDown(ctx context.Context, p ComposeProject) (*Result, error)

	// ComposeStatus returns the human readable service listing.
	ComposeStatus(ctx context.Context, p ComposeProject) (*Result, error)

	// ComposeState reports whether the stack is absent, running or stopped.
	ComposeState(ctx context.Context, p ComposeProject) (deploy.ServiceState, error)
}
