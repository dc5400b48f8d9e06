package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/muxpack/remote"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// UploadFlags tweak the rsync transfer
type UploadFlags struct {
	Delete bool `help:"Remove files on the device that no longer exist locally"`
	DryRun bool `help:"Show what would be transferred without copying anything"`
}

func (f UploadFlags) syncOptions() remote.SyncOptions {
	return remote.SyncOptions{Delete: f.Delete, DryRun: f.DryRun}
}

// UploadCmd copies the built app tree to the device's application directory
type UploadCmd struct {
	DeviceFlags `embed:""`
	UploadFlags `embed:""`
}

func (cmd *UploadCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	target := cmd.Target(appCtx.Project)
	if err := checkTarget(appCtx, target); err != nil {
		return err
	}

	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("Uploading %s to %s...", appCtx.Project.AppName, target.Host)))

	dest, err := newEnv(appCtx).uploadTree(ctx, target, cmd.Paths(appCtx.Project), cmd.syncOptions())
	if err != nil {
		return err
	}

	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ Uploaded to %s", dest)))
	return nil
}

// UploadAppCmd copies the versioned archive to the device's archive directory
type UploadAppCmd struct {
	DeviceFlags `embed:""`
	UploadFlags `embed:""`
	Version     string `help:"Version of the archive to upload instead of the one from the version file"`
}

func (cmd *UploadAppCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	target := cmd.Target(appCtx.Project)
	if err := checkTarget(appCtx, target); err != nil {
		return err
	}

	e := newEnv(appCtx)
	v, err := e.resolveVersion(ctx, cmd.Version)
	if err != nil {
		return err
	}

	archive := e.layout().ArchiveName(v)
	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("Uploading %s to %s...", archive, target.Host)))

	dest, err := e.uploadArchive(ctx, target, cmd.Paths(appCtx.Project), v, cmd.syncOptions())
	if err != nil {
		return err
	}

	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ Uploaded %s to %s", archive, dest)))
	return nil
}
