// Package docker provides a Docker SDK client for the read-side questions the
// deployer asks the daemon: is it alive, which images exist, which compose
// containers are there.
package docker

import (
	"context"
	"time"
)

// =============================================================================
// Container Info
// =============================================================================

// ContainerStatus represents the container status.
type ContainerStatus string

const (
	ContainerStatusCreated    ContainerStatus = "created"
	ContainerStatusRunning    ContainerStatus = "running"
	ContainerStatusPaused     ContainerStatus = "paused"
	ContainerStatusRestarting ContainerStatus = "restarting"
	ContainerStatusRemoving   ContainerStatus = "removing"
	ContainerStatusExited     ContainerStatus = "exited"
	ContainerStatusDead       ContainerStatus = "dead"
)

// IsActive reports whether the container counts as running for teardown
// decisions.
func (s ContainerStatus) IsActive() bool {
	return s == ContainerStatusRunning || s == ContainerStatusRestarting || s == ContainerStatusPaused
}

// ContainerInfo contains information about a container.
type ContainerInfo struct {
	ID        string
	Name      string
	Image     string
	Service   string // compose service label
	Status    ContainerStatus
	State     string // human readable, e.g. "Up 3 minutes"
	CreatedAt time.Time
	Labels    map[string]string
}

// =============================================================================
// Image Info
// =============================================================================

// ImageInfo contains information about a local image.
type ImageInfo struct {
	ID        string
	Tags      []string
	Size      int64 // Bytes
	CreatedAt time.Time
}

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the Docker client interface.
type Client interface {
	// Health operations
	Ping(ctx context.Context) error
	Close() error

	// Image operations
	ListImages(ctx context.Context, reference string) ([]ImageInfo, error)

	// Container operations
	ListProjectContainers(ctx context.Context, project string) ([]ContainerInfo, error)
}

// =============================================================================
// Label Constants
// =============================================================================

const (
	// LabelComposeProject is set by docker compose on every container it creates.
	LabelComposeProject = "com.docker.compose.project"
	// LabelComposeService names the compose service a container belongs to.
	LabelComposeService = "com.docker.compose.service"
)
