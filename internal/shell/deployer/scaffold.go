package deployer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/artpar/hajimi-deploy/internal/core/compose"
	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/core/envfile"
)

// Outcome is what ensuring one resource did.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeExists  Outcome = "exists"
	OutcomeUpdated Outcome = "updated"
)

// Action pairs a managed resource with its outcome.
type Action struct {
	Resource deploy.Resource
	Outcome  Outcome
}

// =============================================================================
// Scaffolding
// =============================================================================

// ScaffoldLayout ensures every managed resource of the deployment directory
// in order. Operator-owned files are never overwritten; the compose manifest
// always tracks the source tree.
func ScaffoldLayout(dc deploy.Context) ([]Action, error) {
	resources := dc.Layout().Resources()
	actions := make([]Action, 0, len(resources))
	for _, res := range resources {
		outcome, err := ensure(dc, res)
		if err != nil {
			return actions, err
		}
		actions = append(actions, Action{Resource: res, Outcome: outcome})
	}
	return actions, nil
}

func ensure(dc deploy.Context, res deploy.Resource) (Outcome, error) {
	info, err := os.Stat(res.Path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", scaffoldError(res.Path, err)
	}
	if exists && info.IsDir() != res.Dir {
		return "", scaffoldError(res.Path, fmt.Errorf("%s exists with the wrong type", res.Name))
	}

	switch res.Policy {
	case deploy.PolicyCreateIfAbsent:
		if exists {
			return OutcomeExists, nil
		}
		if err := os.MkdirAll(res.Path, fs.FileMode(res.Mode)); err != nil {
			return "", scaffoldError(res.Path, err)
		}
		return OutcomeCreated, nil

	case deploy.PolicyCopyIfAbsent:
		if exists {
			return OutcomeExists, nil
		}
		if err := copyFile(dc.SourcePath(res.Source), res.Path, fs.FileMode(res.Mode), true); err != nil {
			return "", err
		}
		return OutcomeCreated, nil

	case deploy.PolicyAlwaysCopy:
		if err := copyFile(dc.SourcePath(res.Source), res.Path, fs.FileMode(res.Mode), false); err != nil {
			return "", err
		}
		if exists {
			return OutcomeUpdated, nil
		}
		return OutcomeCreated, nil

	default:
		return "", scaffoldError(res.Path, fmt.Errorf("unknown policy %q", res.Policy))
	}
}

// copyFile copies src to dst byte for byte. With exclusive set, an existing
// dst is an error rather than truncated.
func copyFile(src, dst string, mode fs.FileMode, exclusive bool) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return scaffoldError(src, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if exclusive {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(dst, flags, mode)
	if err != nil {
		return scaffoldError(dst, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return scaffoldError(dst, err)
	}
	if err := f.Close(); err != nil {
		return scaffoldError(dst, err)
	}
	return nil
}

func scaffoldError(path string, err error) error {
	return deploy.NewError(deploy.KindFilesystemWriteFailure, "scaffold", path, err)
}

// =============================================================================
// Pipeline Step
// =============================================================================

// Scaffold prepares the deployment directory and reads the compose manifest
// that was copied into it.
func (d *Deployer) Scaffold(ctx context.Context) error {
	d.console.Step("Preparing deployment directory")

	actions, err := ScaffoldLayout(d.dc)
	d.actions = actions
	for _, a := range actions {
		d.reportAction(a)
	}
	if err != nil {
		return err
	}

	d.loadManifest()
	return nil
}

func (d *Deployer) reportAction(a Action) {
	d.logger.Debug("resource ensured", "resource", a.Resource.Name, "path", a.Resource.Path, "outcome", a.Outcome)
	switch a.Outcome {
	case OutcomeCreated:
		d.console.Success("Created %s %s", a.Resource.Name, a.Resource.Path)
	case OutcomeUpdated:
		d.console.Success("Updated %s %s", a.Resource.Name, a.Resource.Path)
	default:
		d.console.Info("Found existing %s %s", a.Resource.Name, a.Resource.Path)
	}
}

// composeProjectEnv overrides the manifest's project name when set in .env.
const composeProjectEnv = "COMPOSE_PROJECT_NAME"

// loadManifest parses the deployed compose manifest to learn the project
// name and services. Failures only warn; the directory name stays the
// project name.
func (d *Deployer) loadManifest() {
	data, err := os.ReadFile(d.dc.ComposeFile)
	if err != nil {
		d.console.Warn("Could not read %s: %v", d.dc.ComposeFile, err)
		return
	}

	env := map[string]string{}
	if f, err := envfile.Load(d.layout.EnvFile); err == nil {
		env = f.Map()
	}
	override := env[composeProjectEnv]

	m, err := compose.ParseManifest(string(data), compose.ParseOptions{
		WorkingDir:  d.dc.DeployDir,
		Environment: env,
	})
	if err != nil {
		d.logger.Warn("compose manifest not understood", "path", d.dc.ComposeFile, "error", err)
		d.console.Warn("Could not parse %s: %v", d.dc.ComposeFile, err)
		return
	}

	d.manifest = m
	switch {
	case override != "":
		d.project.Name = compose.ProjectName(override)
	case m.Name != "":
		d.project.Name = m.Name
	}
	d.logger.Debug("compose manifest loaded", "project", d.project.Name, "services", m.ServiceNames())

	if !m.UsesImage(d.dc.Image.String()) {
		d.console.Warn("No service in %s runs image %s", d.dc.ComposeFile, d.dc.Image)
	}
}
