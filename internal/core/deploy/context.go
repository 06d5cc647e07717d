package deploy

import (
	"fmt"
	"path/filepath"
)

// =============================================================================
// Source Tree Constants
// =============================================================================

const (
	// SourceDirName is the subdirectory of the install location holding the
	// scanner's source tree. It travels with the binary and is not configurable.
	SourceDirName = "hajimi-king"

	// ComposeFileName is the compose manifest name in both trees.
	ComposeFileName = "docker-compose.yml"
)

// Source tree artifacts.
const (
	ArtifactDockerfile   = "Dockerfile"
	ArtifactEntryPoint   = "app/hajimi_king.py"
	ArtifactEnvExample   = "env.example"
	ArtifactQueryExample = "queries.example"
	ArtifactCompose      = ComposeFileName
)

// RequiredArtifacts lists the source tree files a deployment needs, in the
// order they are reported.
var RequiredArtifacts = []string{
	ArtifactDockerfile,
	ArtifactEntryPoint,
	ArtifactEnvExample,
	ArtifactQueryExample,
	ArtifactCompose,
}

// =============================================================================
// Context
// =============================================================================

// ImageRef names the image built from the source tree.
type ImageRef struct {
	Name string
	Tag  string
}

// String returns the image reference in name:tag format.
func (r ImageRef) String() string {
	if r.Tag == "" {
		return r.Name
	}
	return fmt.Sprintf("%s:%s", r.Name, r.Tag)
}

// Context holds the directories and names a deployment run works with.
// It is built once by Resolve and never mutated afterwards.
type Context struct {
	InstallDir  string
	SourceDir   string
	DeployDir   string
	Image       ImageRef
	ComposeFile string
}

// Resolve derives the deployment context from the orchestrator's install
// directory and the caller's working directory.
//
// The source tree is always InstallDir/hajimi-king; the deploy directory is
// always the working directory, so one binary serves many deploy locations.
func Resolve(installDir, workDir string, image ImageRef) Context {
	installDir = filepath.Clean(installDir)
	workDir = filepath.Clean(workDir)
	return Context{
		InstallDir:  installDir,
		SourceDir:   filepath.Join(installDir, SourceDirName),
		DeployDir:   workDir,
		Image:       image,
		ComposeFile: filepath.Join(workDir, ComposeFileName),
	}
}

// SourcePath returns the path of a source tree artifact.
func (c Context) SourcePath(artifact string) string {
	return filepath.Join(c.SourceDir, filepath.FromSlash(artifact))
}

// Layout returns the deploy directory layout for this context.
func (c Context) Layout() Layout {
	return NewLayout(c.DeployDir)
}
