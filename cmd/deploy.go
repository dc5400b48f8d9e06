package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/muxpack/types"
)

// DeployCmd runs clean, build and upload in one go. The device settings are
// checked before anything is built.
type DeployCmd struct {
	DeviceFlags `embed:""`
	UploadFlags `embed:""`
	Version     string `help:"Version to stamp instead of the one from the version file"`
	Plain       bool   `help:"Print plain step output instead of the interactive view"`
}

func (cmd *DeployCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	target := cmd.Target(appCtx.Project)
	if err := checkTarget(appCtx, target); err != nil {
		return err
	}

	v, err := newEnv(appCtx).resolveVersion(ctx, cmd.Version)
	if err != nil {
		return err
	}

	p := pipeline{
		title: fmt.Sprintf("deploy %s %s to %s", appCtx.Project.AppName, v, target.Host),
		steps: []step{cleanStep(), buildStep(v), uploadStep(cmd.DeviceFlags, cmd.UploadFlags)},
		tui:   interactive(cmd.Plain),
	}
	return p.run(ctx, appCtx)
}
