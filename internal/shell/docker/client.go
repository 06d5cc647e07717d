package docker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// =============================================================================
// Docker Client Implementation
// =============================================================================

// DockerClient implements the Client interface using the Docker SDK.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient creates a new Docker client.
// If host is empty, it uses the default Docker host from environment.
// On macOS with Docker Desktop, it automatically detects the correct socket.
func NewDockerClient(ctx context.Context, host string) (*DockerClient, error) {
	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewDockerError("NewDockerClient", "", "", "failed to create client", ErrConnectionFailed)
	}

	// An explicit host is used as-is.
	if host != "" {
		return &DockerClient{cli: cli}, nil
	}

	// Try to ping with default settings
	if _, pingErr := cli.Ping(ctx); pingErr != nil {
		// If default socket fails, try Docker Desktop socket on macOS
		homeDir, _ := os.UserHomeDir()
		dockerDesktopSocket := "unix://" + homeDir + "/.docker/run/docker.sock"

		cli2, err2 := client.NewClientWithOpts(
			client.WithHost(dockerDesktopSocket),
			client.WithAPIVersionNegotiation(),
		)
		if err2 == nil {
			if _, pingErr2 := cli2.Ping(ctx); pingErr2 == nil {
				cli.Close()
				return &DockerClient{cli: cli2}, nil
			}
			cli2.Close()
		}
	}

	return &DockerClient{cli: cli}, nil
}

// Ping checks if Docker daemon is reachable.
func (d *DockerClient) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	if err != nil {
		return NewDockerError("Ping", "", "", fmt.Sprintf("failed to ping docker: %v", err), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerClient) Close() error {
	return d.cli.Close()
}

// =============================================================================
// Image Operations
// =============================================================================

// ListImages returns local images matching reference (e.g. "name:tag").
func (d *DockerClient) ListImages(ctx context.Context, reference string) ([]ImageInfo, error) {
	listOpts := image.ListOptions{}
	if reference != "" {
		listOpts.Filters = filters.NewArgs(filters.Arg("reference", reference))
	}

	images, err := d.cli.ImageList(ctx, listOpts)
	if err != nil {
		return nil, NewDockerError("ListImages", "image", reference, err.Error(), err)
	}

	result := make([]ImageInfo, 0, len(images))
	for _, img := range images {
		result = append(result, ImageInfo{
			ID:        shortID(img.ID),
			Tags:      img.RepoTags,
			Size:      img.Size,
			CreatedAt: time.Unix(img.Created, 0),
		})
	}

	return result, nil
}

// =============================================================================
// Container Operations
// =============================================================================

// ListProjectContainers returns every container, running or not, that docker
// compose created for the given project.
func (d *DockerClient) ListProjectContainers(ctx context.Context, project string) ([]ContainerInfo, error) {
	listOpts := container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", fmt.Sprintf("%s=%s", LabelComposeProject, project))),
	}

	containers, err := d.cli.ContainerList(ctx, listOpts)
	if err != nil {
		return nil, NewDockerError("ListProjectContainers", "container", project, err.Error(), err)
	}

	var result []ContainerInfo
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		result = append(result, ContainerInfo{
			ID:        shortID(c.ID),
			Name:      name,
			Image:     c.Image,
			Service:   c.Labels[LabelComposeService],
			Status:    ContainerStatus(c.State),
			State:     c.Status,
			CreatedAt: time.Unix(c.Created, 0),
			Labels:    c.Labels,
		})
	}

	return result, nil
}

// shortID trims a content digest to the 12-character form docker prints.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
