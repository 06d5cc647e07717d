package deploy

import "path/filepath"

// =============================================================================
// Deployment Directory Layout
// =============================================================================

// Layout is the set of paths a deploy directory converges toward.
type Layout struct {
	DataDir     string
	LogDir      string
	EnvFile     string
	QueriesFile string
	ComposeFile string
}

// NewLayout returns the layout rooted at deployDir.
func NewLayout(deployDir string) Layout {
	dataDir := filepath.Join(deployDir, "data")
	return Layout{
		DataDir:     dataDir,
		LogDir:      filepath.Join(deployDir, "logs"),
		EnvFile:     filepath.Join(deployDir, ".env"),
		QueriesFile: filepath.Join(dataDir, "queries.txt"),
		ComposeFile: filepath.Join(deployDir, ComposeFileName),
	}
}

// EnsurePolicy says how the scaffolder treats an existing path.
type EnsurePolicy string

const (
	// PolicyCreateIfAbsent creates a directory when missing.
	PolicyCreateIfAbsent EnsurePolicy = "create-if-absent"
	// PolicyCopyIfAbsent copies from the source tree when missing and never
	// overwrites operator edits.
	PolicyCopyIfAbsent EnsurePolicy = "copy-if-absent"
	// PolicyAlwaysCopy refreshes the file from the source tree on every run.
	PolicyAlwaysCopy EnsurePolicy = "always-copy"
)

// Resource is one managed entry of the layout.
type Resource struct {
	Name   string
	Path   string
	Dir    bool
	Source string // Source tree artifact, empty for directories
	Policy EnsurePolicy
	Mode   uint32
}

// Resources returns the managed resources in the order they are ensured.
// Directories come first so copied files have a parent.
func (l Layout) Resources() []Resource {
	return []Resource{
		{Name: "data directory", Path: l.DataDir, Dir: true, Policy: PolicyCreateIfAbsent, Mode: 0o755},
		{Name: "log directory", Path: l.LogDir, Dir: true, Policy: PolicyCreateIfAbsent, Mode: 0o755},
		{Name: "environment file", Path: l.EnvFile, Source: ArtifactEnvExample, Policy: PolicyCopyIfAbsent, Mode: 0o600},
		{Name: "queries file", Path: l.QueriesFile, Source: ArtifactQueryExample, Policy: PolicyCopyIfAbsent, Mode: 0o644},
		{Name: "compose manifest", Path: l.ComposeFile, Source: ArtifactCompose, Policy: PolicyAlwaysCopy, Mode: 0o644},
	}
}
