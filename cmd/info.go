package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/lepinkainen/muxpack/pack"
	"github.com/lepinkainen/muxpack/remote"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
	"github.com/lepinkainen/muxpack/utils"
)

// InfoCmd prints the resolved project layout and device settings
type InfoCmd struct {
	DeviceFlags `embed:""`
}

func (cmd *InfoCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}
	e := newEnv(appCtx)
	p := appCtx.Project
	l := e.layout()

	v, archive := "", "-"
	if resolved, err := e.resolveVersion(ctx, ""); err != nil {
		v = "unresolved: " + err.Error()
	} else {
		v, archive = resolved, l.ArchivePath(resolved)
	}

	method := pack.MethodNative
	if p.UseRsync && utils.HasTool("rsync") {
		method = pack.MethodRsync
	}

	ui.RenderKV(os.Stdout, "Project", []ui.KV{
		{Key: "Root", Value: p.Root},
		{Key: "Source", Value: l.SourceDir},
		{Key: "Version file", Value: p.Abs(p.VersionFile)},
		{Key: "Version", Value: v},
		{Key: "Build", Value: l.AppBuildDir()},
		{Key: "Copy method", Value: method},
		{Key: "Archive", Value: archive},
		{Key: "Excludes", Value: fmt.Sprint(e.excludes().Patterns())},
	})

	ui.RenderKV(os.Stdout, "Device", deviceRows(cmd.Target(p), cmd.Paths(p)))
	return nil
}

func deviceRows(t remote.Target, paths remote.Paths) []ui.KV {
	host := t.Host
	if host == "" {
		host = "not set (" + remote.EnvHost + ")"
	}

	auth := t.Auth().String()
	switch t.Auth() {
	case remote.AuthKey:
		auth += " " + t.KeyPath
	case remote.AuthPassword:
		auth += " (from " + remote.EnvPassword + ")"
	}

	appDir, err := paths.ApplicationDir()
	if err != nil {
		appDir = err.Error()
	}
	archiveDir, err := paths.ArchiveDirPath()
	if err != nil {
		archiveDir = err.Error()
	}

	return []ui.KV{
		{Key: "Host", Value: host},
		{Key: "User", Value: t.User},
		{Key: "Port", Value: strconv.Itoa(t.Port)},
		{Key: "Auth", Value: auth},
		{Key: "App dir", Value: appDir},
		{Key: "Archive dir", Value: archiveDir},
	}
}
