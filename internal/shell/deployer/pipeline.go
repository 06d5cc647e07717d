package deployer

import (
	"context"
	"time"
)

type step struct {
	name string
	fn   func(ctx context.Context) error
}

// steps lists the pipeline in execution order.
func (d *Deployer) steps() []step {
	return []step{
		{name: "validate source", fn: d.ValidateSource},
		{name: "validate runtime", fn: d.ValidateRuntime},
		{name: "scaffold", fn: d.Scaffold},
		{name: "configure credentials", fn: d.ConfigureCredentials},
		{name: "configure integrations", fn: d.ConfigureIntegrations},
		{name: "cleanup", fn: d.CleanupExisting},
		{name: "build", fn: d.BuildImage},
		{name: "start", fn: d.StartServices},
		{name: "report", fn: d.Report},
	}
}

// Run executes every step in order and stops at the first failure.
func (d *Deployer) Run(ctx context.Context) error {
	d.logger.Info("deployment started",
		"source_dir", d.dc.SourceDir,
		"deploy_dir", d.dc.DeployDir,
		"image", d.dc.Image.String(),
	)

	for _, s := range d.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := s.fn(ctx)
		elapsed := time.Since(start)

		if err != nil {
			d.logger.Error("step failed", "step", s.name, "duration", elapsed, "stages", d.tracker.History(), "error", err)
			return err
		}
		d.logger.Debug("step finished", "step", s.name, "duration", elapsed)
	}

	d.logger.Info("deployment finished", "stages", d.tracker.History())
	return nil
}
