package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// ZipCmd bundles the build directory into a versioned app archive
type ZipCmd struct {
	Version string `help:"Version for the archive name instead of the one from the version file"`
	NoBuild bool   `help:"Archive the existing build directory without rebuilding"`
}

func (cmd *ZipCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}
	e := newEnv(appCtx)

	v, err := e.resolveVersion(ctx, cmd.Version)
	if err != nil {
		return err
	}

	if !cmd.NoBuild {
		res, err := e.build(ctx, v)
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("Built %s (%s)", res.AppDir, buildDetail(res))))
	}

	var bar *progressbar.ProgressBar
	e.progress = func(done, total int) {
		if bar == nil {
			bar = ui.NewFileProgress(total, "Archiving")
		}
		_ = bar.Set(done)
	}

	res, err := e.archive(ctx, v)
	if err != nil {
		return fmt.Errorf("archive failed: %w", err)
	}

	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ %s (%d entries, %s)", res.Path, res.Entries, formatSize(res.Size))))
	return nil
}
