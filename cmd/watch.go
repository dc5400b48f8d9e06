package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
	"github.com/lepinkainen/muxpack/utils"
	"github.com/lepinkainen/muxpack/watch"
)

// WatchCmd rebuilds the app whenever its sources change, optionally pushing
// each build to the device.
type WatchCmd struct {
	DeviceFlags `embed:""`
	Upload      bool          `help:"Upload to the device after each build"`
	Debounce    time.Duration `help:"Quiet period before rebuilding" default:"500ms"`
	Version     string        `help:"Version to stamp instead of the one from the version file"`
}

func (cmd *WatchCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	if cmd.Upload {
		if err := checkTarget(appCtx, cmd.Target(appCtx.Project)); err != nil {
			return err
		}
	}

	e := newEnv(appCtx)
	v, err := e.resolveVersion(ctx, cmd.Version)
	if err != nil {
		return err
	}

	steps := []step{buildStep(v)}
	if cmd.Upload {
		steps = append(steps, uploadStep(cmd.DeviceFlags, UploadFlags{}))
	}
	p := pipeline{title: "watch", steps: steps, out: os.Stdout}

	rebuild := func() error {
		return execute(ctx, e, steps, p.printer())
	}

	fmt.Println(ui.Header(appCtx.ToolVersion(), fmt.Sprintf("watching %s", appCtx.Project.SourceDir)))
	if err := rebuild(); err != nil {
		// keep watching, the next save may fix it
		e.logger.Debug("initial build failed", zap.Error(err))
	}
	fmt.Println(ui.DimStyle.Render("Waiting for changes, ctrl+c to stop"))

	excludes := e.excludes()
	w := &watch.Watcher{
		Root:     e.layout().SourceDir,
		Debounce: cmd.Debounce,
		Ignore:   excludes.Match,
		Logger:   e.logger,
	}

	if utils.IsNetworkPath(w.Root) {
		fmt.Println(ui.WarnStyle.Render("⚠️  Sources are on a network filesystem, changes may go unnoticed"))
	}

	err = w.Run(ctx, func(changed []string) error {
		e.logger.Info("sources changed", zap.Int("files", len(changed)), zap.Strings("paths", changed))
		return rebuild()
	})
	if err != nil {
		return err
	}

	fmt.Println(ui.InfoStyle.Render("Stopped watching"))
	return nil
}
