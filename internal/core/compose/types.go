package compose

import (
	"fmt"
	"strconv"

	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Manifest - Main Output Type
// =============================================================================

// Manifest is the part of a compose manifest the orchestrator cares about:
// the project name that labels its containers and the services it starts.
type Manifest struct {
	Name     string    `json:"name"`
	Services []Service `json:"services"`
}

// ServiceNames returns the service names in manifest order.
func (m *Manifest) ServiceNames() []string {
	names := make([]string, 0, len(m.Services))
	for _, s := range m.Services {
		names = append(names, s.Name)
	}
	return names
}

// UsesImage reports whether any service runs the given image reference.
// A reference without a tag matches any tag of the same repository.
func (m *Manifest) UsesImage(ref string) bool {
	want := ParseImageRef(ref)
	for _, s := range m.Services {
		if s.Image == "" {
			continue
		}
		got := ParseImageRef(s.Image)
		if got.Repository != want.Repository {
			continue
		}
		if want.Tag == "" || got.Tag == want.Tag {
			return true
		}
	}
	return false
}

// =============================================================================
// Service Types
// =============================================================================

// Service represents a single service definition.
type Service struct {
	Name          string        `json:"name"`
	Image         string        `json:"image,omitempty"`
	BuildContext  string        `json:"build_context,omitempty"`
	ContainerName string        `json:"container_name,omitempty"`
	Ports         []Port        `json:"ports,omitempty"`
	Volumes       []VolumeMount `json:"volumes,omitempty"`
	EnvFiles      []string      `json:"env_files,omitempty"`
	Restart       string        `json:"restart,omitempty"`
}

// Port represents a port mapping.
type Port struct {
	Target    uint32 `json:"target"`              // Container port
	Published uint32 `json:"published,omitempty"` // Host port (0 = dynamic)
	Protocol  string `json:"protocol,omitempty"`  // tcp, udp
	HostIP    string `json:"host_ip,omitempty"`   // Bind IP
}

// ContainerPort returns the container side of the mapping, e.g. "8080/tcp".
func (p Port) ContainerPort() nat.Port {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	port, err := nat.NewPort(proto, strconv.FormatUint(uint64(p.Target), 10))
	if err != nil {
		return nat.Port(fmt.Sprintf("%d/%s", p.Target, proto))
	}
	return port
}

// String renders the mapping as host -> container.
func (p Port) String() string {
	if p.Published == 0 {
		return string(p.ContainerPort())
	}
	host := strconv.FormatUint(uint64(p.Published), 10)
	if p.HostIP != "" {
		host = p.HostIP + ":" + host
	}
	return fmt.Sprintf("%s -> %s", host, p.ContainerPort())
}

// VolumeMount represents a volume mount in a service.
type VolumeMount struct {
	Type     string `json:"type"`   // bind, volume, tmpfs
	Source   string `json:"source"` // Path or volume name
	Target   string `json:"target"` // Container path
	ReadOnly bool   `json:"readonly"`
}

// =============================================================================
// Image References
// =============================================================================

// ImageRef is a repository plus an optional tag.
type ImageRef struct {
	Repository string
	Tag        string
}

// ParseImageRef splits name[:tag]. A colon that is part of a registry host
// (followed by a path) is not treated as a tag separator.
func ParseImageRef(ref string) ImageRef {
	for i := len(ref) - 1; i >= 0; i-- {
		switch ref[i] {
		case '/':
			return ImageRef{Repository: ref}
		case ':':
			return ImageRef{Repository: ref[:i], Tag: ref[i+1:]}
		}
	}
	return ImageRef{Repository: ref}
}
