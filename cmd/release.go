package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/muxpack/types"
)

// ReleaseCmd runs clean, build and zip in one go
type ReleaseCmd struct {
	Version string `help:"Version to release instead of the one from the version file"`
	Plain   bool   `help:"Print plain step output instead of the interactive view"`
}

func (cmd *ReleaseCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	v, err := newEnv(appCtx).resolveVersion(ctx, cmd.Version)
	if err != nil {
		return err
	}

	p := pipeline{
		title: fmt.Sprintf("release %s %s", appCtx.Project.AppName, v),
		steps: []step{cleanStep(), buildStep(v), zipStep(v)},
		tui:   interactive(cmd.Plain),
	}
	return p.run(ctx, appCtx)
}
