package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// BuildCmd copies the app sources into the build directory and stamps the
// resolved version into the copied version file.
type BuildCmd struct {
	Version string `help:"Version to stamp instead of the one from the version file"`
}

func (cmd *BuildCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}
	e := newEnv(appCtx)

	v, err := e.resolveVersion(ctx, cmd.Version)
	if err != nil {
		return err
	}

	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("Building %s %s...", appCtx.Project.AppName, v)))

	res, err := e.build(ctx, v)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if !res.Stamped {
		fmt.Println(ui.WarnStyle.Render(fmt.Sprintf("⚠️  No %q placeholder found in the version file, left as is", appCtx.Project.Placeholder)))
	}
	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ Built %s (%s)", res.AppDir, buildDetail(res))))
	return nil
}
