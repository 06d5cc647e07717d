package deployer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/runtime"
)

// =============================================================================
// Source Tree
// =============================================================================

// MissingArtifacts returns every required artifact absent from the source
// tree. A directory where a file is expected counts as missing.
func MissingArtifacts(dc deploy.Context) []string {
	var missing []string
	for _, artifact := range deploy.RequiredArtifacts {
		info, err := os.Stat(dc.SourcePath(artifact))
		if err != nil || info.IsDir() {
			missing = append(missing, artifact)
		}
	}
	return missing
}

// ValidateSource fails with every missing artifact listed at once.
func (d *Deployer) ValidateSource(ctx context.Context) error {
	d.console.Step("Checking source tree")

	if missing := MissingArtifacts(d.dc); len(missing) > 0 {
		for _, m := range missing {
			d.console.Error("Missing %s", d.dc.SourcePath(m))
		}
		return deploy.MissingArtifacts(d.dc.SourceDir, missing)
	}

	d.console.Success("Source tree %s is complete", d.dc.SourceDir)
	return nil
}

// =============================================================================
// Container Runtime
// =============================================================================

// ValidateRuntime checks the build tool, the compose tool and the daemon.
func (d *Deployer) ValidateRuntime(ctx context.Context) error {
	d.console.Step("Checking container runtime")

	if err := d.runtime.LocateTools(ctx); err != nil {
		tool := ""
		var toolErr *runtime.ToolError
		if errors.As(err, &toolErr) {
			tool = toolErr.Tool
		}
		return deploy.NewError(deploy.KindMissingRuntimeTool, "validate runtime", tool, err)
	}
	d.console.Success("docker and compose are installed")

	res, err := d.runtime.DaemonReachable(ctx)
	if err != nil {
		return deploy.NewError(deploy.KindDaemonUnreachable, "validate runtime", "docker daemon", err)
	}
	if !res.Succeeded() {
		return deploy.NewError(deploy.KindDaemonUnreachable, "validate runtime", "docker daemon", resultError(res))
	}

	d.console.Success("Docker daemon is reachable")
	return nil
}

// resultError describes a failed command by its exit status and the last
// line it printed.
func resultError(res *runtime.Result) error {
	if res == nil {
		return errors.New("command produced no result")
	}
	if last := lastLine(res.Output); last != "" {
		return fmt.Errorf("exit status %d: %s", res.ExitCode, last)
	}
	return fmt.Errorf("exit status %d", res.ExitCode)
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
