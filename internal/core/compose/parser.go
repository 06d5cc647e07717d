package compose

import (
	"context"
	"maps"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// ParseOptions controls how a manifest is interpreted.
type ParseOptions struct {
	// WorkingDir is the directory compose would run from; its basename is the
	// default project name.
	WorkingDir string

	// Environment feeds ${VAR} interpolation, normally the deployment's .env.
	Environment map[string]string
}

// ParseManifest parses Docker Compose YAML into a Manifest.
// Input: raw YAML string
// Output: Manifest struct or error
func ParseManifest(yamlContent string, opts ParseOptions) (*Manifest, error) {
	// Input validation
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	project, err := loadProject(yamlContent, opts)
	if err != nil {
		return nil, err
	}

	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	manifest := &Manifest{
		Name:     project.Name,
		Services: make([]Service, 0, len(project.Services)),
	}

	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		manifest.Services = append(manifest.Services, converted)
	}

	// compose-go keys services by name; keep output stable.
	sort.Slice(manifest.Services, func(i, j int) bool {
		return manifest.Services[i].Name < manifest.Services[j].Name
	})

	return manifest, nil
}

// ProjectName returns the compose project name used for a working directory
// when the manifest does not set one.
func ProjectName(workingDir string) string {
	return loader.NormalizeProjectName(filepath.Base(filepath.Clean(workingDir)))
}

// loadProject loads a compose project using compose-go
func loadProject(yamlContent string, opts ParseOptions) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// Check if it's a valid object
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	projectName := ProjectName(opts.WorkingDir)
	if projectName == "" {
		projectName = "default"
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		WorkingDir: opts.WorkingDir,
		ConfigFiles: []types.ConfigFile{
			{
				Filename: filepath.Join(opts.WorkingDir, "docker-compose.yml"),
				Content:  []byte(yamlContent),
				Config:   dict,
			},
		},
		// The loader writes COMPOSE_PROJECT_NAME back into this mapping.
		Environment: types.Mapping(maps.Clone(opts.Environment)),
	}, func(o *loader.Options) {
		// A name: key in the manifest still wins over the directory name.
		o.SetProjectName(projectName, false)
		o.SkipNormalization = true
		o.SkipResolveEnvironment = true
		o.SkipConsistencyCheck = true
		o.SkipExtends = true
		o.SkipInclude = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must have image or build", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}

	return project, nil
}

// convertService converts a compose-go service to our Service type
func convertService(svc types.ServiceConfig) (Service, error) {
	service := Service{
		Name:          svc.Name,
		Image:         svc.Image,
		ContainerName: svc.ContainerName,
		Restart:       svc.Restart,
	}

	if svc.Build != nil {
		service.BuildContext = svc.Build.Context
	}

	// Validate image or build
	if service.Image == "" && svc.Build == nil {
		return Service{}, NewParseError("services."+svc.Name, "service must have image or build", ErrServiceNoImage)
	}

	// Ports
	for _, p := range svc.Ports {
		var published uint32
		if p.Published != "" {
			pub, err := strconv.ParseUint(p.Published, 10, 32)
			if err == nil {
				published = uint32(pub)
			}
		}
		service.Ports = append(service.Ports, Port{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
			HostIP:    p.HostIP,
		})
	}

	// Volumes
	for _, v := range svc.Volumes {
		mount := VolumeMount{
			Type:     v.Type,
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		}
		if mount.Type == "" {
			// Infer type from source
			if strings.HasPrefix(v.Source, "./") || strings.HasPrefix(v.Source, "/") || strings.HasPrefix(v.Source, "~") {
				mount.Type = types.VolumeTypeBind
			} else {
				mount.Type = types.VolumeTypeVolume
			}
		}
		service.Volumes = append(service.Volumes, mount)
	}

	for _, ef := range svc.EnvFiles {
		service.EnvFiles = append(service.EnvFiles, ef.Path)
	}

	return service, nil
}
