package deployer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/runtime"
)

// CleanupExisting tears down a stack left by a previous run. Nothing is
// printed when no containers exist.
func (d *Deployer) CleanupExisting(ctx context.Context) error {
	state, err := d.runtime.ComposeState(ctx, d.project)
	if err != nil {
		// An unreadable state is torn down like a stopped stack.
		d.logger.Warn("could not read service state", "project", d.project.Name, "error", err)
		state = deploy.ServiceStopped
	}
	if !state.NeedsTeardown() {
		d.logger.Debug("no existing deployment", "project", d.project.Name)
		return nil
	}

	d.console.Step("Stopping existing deployment")
	if err := d.advance(deploy.StageStopping); err != nil {
		return err
	}

	res, err := d.runtime.ComposeDown(ctx, d.project)
	if err := d.outcome(res, err, deploy.KindTeardownFailure, "cleanup", d.dc.ComposeFile); err != nil {
		return err
	}
	if err := d.advance(deploy.StageStopped); err != nil {
		return err
	}

	d.console.Success("Stopped previous %s stack", state)
	return nil
}

// BuildImage builds the image with the source tree as build context.
func (d *Deployer) BuildImage(ctx context.Context) error {
	tag := d.dc.Image.String()
	d.console.Step("Building image " + tag)
	if err := d.advance(deploy.StageBuilding); err != nil {
		return err
	}

	res, err := d.runtime.BuildImage(ctx, runtime.BuildRequest{ContextDir: d.dc.SourceDir, Tag: tag})
	if err := d.outcome(res, err, deploy.KindBuildFailure, "build", tag); err != nil {
		return err
	}
	if err := d.advance(deploy.StageBuilt); err != nil {
		return err
	}
	d.console.Success("Built %s in %s", tag, res.Duration.Round(100*time.Millisecond))

	images, err := d.runtime.ListImages(ctx, tag)
	if err != nil {
		d.logger.Warn("could not list built image", "image", tag, "error", err)
		return nil
	}
	for _, img := range images {
		d.console.KeyValue("image", fmt.Sprintf("%s %s", img.ID, strings.Join(img.Tags, ", ")))
	}
	return nil
}

// StartServices brings the stack up from the deployment directory, then
// shows its status. The status display never fails the step.
func (d *Deployer) StartServices(ctx context.Context) error {
	d.console.Step("Starting services")
	if err := d.advance(deploy.StageStarting); err != nil {
		return err
	}

	res, err := d.runtime.ComposeUp(ctx, d.project)
	if err := d.outcome(res, err, deploy.KindStartFailure, "start", d.dc.ComposeFile); err != nil {
		return err
	}
	if err := d.advance(deploy.StageStarted); err != nil {
		return err
	}
	d.console.Success("Services started")

	if err := d.sleep(ctx, d.config.StatusDelay); err != nil {
		return nil
	}
	d.showStatus(ctx)
	return nil
}

func (d *Deployer) showStatus(ctx context.Context) {
	res, err := d.runtime.ComposeStatus(ctx, d.project)
	if err != nil || !res.Succeeded() {
		d.logger.Warn("compose status unavailable", "error", err)
		d.console.Warn("Could not read service status")
	} else {
		d.console.Block(res.Output)
	}

	state, err := d.runtime.ComposeState(ctx, d.project)
	switch {
	case err != nil:
		d.logger.Warn("could not read service state", "error", err)
	case state == deploy.ServiceRunning:
		d.console.Success("Service is running")
	default:
		d.console.Warn("Service is %s; check the logs", state)
	}
}

// advance moves the lifecycle to the next stage.
func (d *Deployer) advance(stage deploy.Stage) error {
	from := d.tracker.Current()
	if err := d.tracker.Advance(stage); err != nil {
		return err
	}
	d.logger.Info("lifecycle stage", "from", from, "to", stage)
	return nil
}

// outcome turns a runtime result into a pipeline error of kind, moving the
// lifecycle to failed. It returns nil when the command succeeded.
func (d *Deployer) outcome(res *runtime.Result, err error, kind deploy.Kind, op, subject string) error {
	if err == nil && res.Succeeded() {
		return nil
	}
	if err == nil {
		err = resultError(res)
	}
	if advErr := d.advance(deploy.StageFailed); advErr != nil {
		d.logger.Debug("lifecycle already terminal", "error", advErr)
	}
	return deploy.NewError(kind, op, subject, err)
}
