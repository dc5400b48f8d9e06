package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/config"
	"github.com/lepinkainen/muxpack/pack"
	"github.com/lepinkainen/muxpack/remote"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/utils"
	"github.com/lepinkainen/muxpack/version"
)

// DeviceFlags are the connection settings shared by the remote commands.
// They are normally supplied through the environment.
type DeviceFlags struct {
	Host     string `name:"host" env:"DEVICE_IP_ADDRESS" help:"Device IP address or hostname"`
	KeyPath  string `name:"key" env:"PRIVATE_KEY_PATH" help:"Private key for SSH (preferred over password)" type:"path"`
	Password string `name:"password" env:"SSH_PASSWORD" help:"SSH password, used when no key is given"`
	SDCard   int    `name:"sd" help:"SD card to deploy to (1=/mnt/mmc, 2=/mnt/sdcard); defaults to the config"`
}

// Target combines the flags with the project's remote settings
func (f DeviceFlags) Target(p *config.Project) remote.Target {
	return remote.Target{
		Host:           f.Host,
		User:           p.Remote.User,
		Port:           p.Remote.Port,
		KeyPath:        f.KeyPath,
		Password:       f.Password,
		StrictHostKeys: p.Remote.StrictHostKeys,
	}
}

// Paths resolves the device directories, honoring --sd
func (f DeviceFlags) Paths(p *config.Project) remote.Paths {
	sd := p.Remote.SDCard
	if f.SDCard != 0 {
		sd = f.SDCard
	}
	return remote.Paths{SDCard: sd, AppDir: p.Remote.AppDir, ArchiveDir: p.Remote.ArchiveDir}
}

// env carries what a single step needs. Pipelines running under the TUI
// swap the logger and output writer so nothing scribbles over the screen.
type env struct {
	app      *types.AppContext
	logger   *zap.Logger
	out      io.Writer
	progress func(done, total int)
}

func newEnv(app *types.AppContext) env {
	logger := app.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return env{app: app, logger: logger, out: os.Stdout}
}

func (e env) project() *config.Project {
	return e.app.Project
}

func (e env) layout() pack.Layout {
	return pack.NewLayout(e.app.Project)
}

func (e env) excludes() pack.Excludes {
	return pack.NewExcludes(e.app.Project.Excludes)
}

func (e env) runner() utils.Runner {
	if e.app.Runner == nil {
		return utils.NewExecRunner(e.logger)
	}
	return e.app.Runner
}

// resolveVersion returns override when set, otherwise the version from the
// project's version file
func (e env) resolveVersion(ctx context.Context, override string) (string, error) {
	if override != "" {
		return version.Sanitize(override), nil
	}
	p := e.project()
	v, err := version.Resolve(ctx, version.ResolveOptions{
		File:        p.Abs(p.VersionFile),
		Placeholder: p.Placeholder,
		RepoDir:     p.Root,
		Runner:      e.runner(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve version: %w", err)
	}
	e.logger.Debug("resolved version", zap.String("version", v))
	return v, nil
}

func (e env) clean() (string, error) {
	removed, err := pack.Clean(e.layout())
	if err != nil {
		return "", err
	}
	if len(removed) == 0 {
		return "nothing to remove", nil
	}
	e.logger.Debug("removed directories", zap.Strings("dirs", removed))
	return fmt.Sprintf("removed %d director%s", len(removed), plural(len(removed), "y", "ies")), nil
}

func (e env) build(ctx context.Context, v string) (*pack.BuildResult, error) {
	return pack.Build(ctx, pack.BuildOptions{
		Layout:   e.layout(),
		Version:  v,
		Excludes: e.excludes(),
		UseRsync: e.project().UseRsync,
		Runner:   e.runner(),
		Logger:   e.logger,
	})
}

func (e env) archive(ctx context.Context, v string) (*pack.ArchiveResult, error) {
	opts := pack.ArchiveOptions{
		Layout:   e.layout(),
		Version:  v,
		Excludes: e.excludes(),
		Logger:   e.logger,
	}
	if e.progress != nil {
		opts.Progress = func(done, total int, _ string) { e.progress(done, total) }
	}
	return pack.Archive(ctx, opts)
}

// uploadTree syncs the app build directory into the device's application dir
func (e env) uploadTree(ctx context.Context, target remote.Target, paths remote.Paths, opts remote.SyncOptions) (string, error) {
	dst, err := paths.ApplicationDir()
	if err != nil {
		return "", err
	}

	src := e.layout().AppBuildDir()
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", pack.ErrNothingBuilt
		}
		return "", err
	}

	opts.Stdout, opts.Stderr = e.out, e.out
	if err := remote.Sync(ctx, e.runner(), e.logger, target, src, dst, opts); err != nil {
		return "", err
	}
	return target.Destination(dst), nil
}

// uploadArchive syncs the bundle for version v into the device's archive dir
func (e env) uploadArchive(ctx context.Context, target remote.Target, paths remote.Paths, v string, opts remote.SyncOptions) (string, error) {
	dst, err := paths.ArchiveDirPath()
	if err != nil {
		return "", err
	}

	src := e.layout().ArchivePath(v)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("archive %s not found, run zip first: %w", src, err)
		}
		return "", err
	}

	opts.Stdout, opts.Stderr = e.out, e.out
	if err := remote.Sync(ctx, e.runner(), e.logger, target, src, dst, opts); err != nil {
		return "", err
	}
	return target.Destination(dst), nil
}

// checkTarget validates the connection settings and the tools a transfer needs
func checkTarget(app *types.AppContext, target remote.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}
	return app.RequireTools(remote.RequiredTools(target)...)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

var errNoProject = errors.New("no project configuration loaded")

func requireProject(app *types.AppContext) error {
	if app == nil || app.Project == nil {
		return errNoProject
	}
	return nil
}
