// Package deploy provides the pure model of a deployment run.
//
// It resolves the directories a run works with, names the on-disk layout the
// scaffolder converges toward, and defines the error taxonomy and lifecycle
// stages. Nothing in this package performs I/O.
//
// # Usage
//
// The imperative shell (internal/shell/deployer) resolves a Context once and
// threads it through every stage of the pipeline.
//
//	ctx := deploy.Resolve(installDir, workDir, deploy.ImageRef{Name: "hajimi-king", Tag: "1.0.0"})
//	layout := ctx.Layout()
package deploy
