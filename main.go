package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/muxpack/cmd"
	"github.com/lepinkainen/muxpack/config"
	"github.com/lepinkainen/muxpack/logging"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/utils"
)

var Version = "dev"

type CLI struct {
	Config  string `help:"Project config file; defaults apply when it does not exist" default:"muxpack.yaml" type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Clean       cmd.CleanCmd       `cmd:"" help:"Remove the build and dist directories"`
	Build       cmd.BuildCmd       `cmd:"" help:"Copy the app sources into the build directory and stamp the version"`
	Zip         cmd.ZipCmd         `cmd:"" help:"Build and bundle the app into a versioned archive"`
	Connect     cmd.ConnectCmd     `cmd:"" help:"Check the device connection settings"`
	Upload      cmd.UploadCmd      `cmd:"" help:"Copy the built app to the device"`
	UploadApp   cmd.UploadAppCmd   `cmd:"" name:"upload-app" help:"Copy the app archive to the device's archive directory"`
	Release     cmd.ReleaseCmd     `cmd:"" help:"Clean, build and zip"`
	Deploy      cmd.DeployCmd      `cmd:"" help:"Clean, build and upload to the device"`
	Watch       cmd.WatchCmd       `cmd:"" help:"Rebuild when the app sources change"`
	Info        cmd.InfoCmd        `cmd:"" help:"Show the resolved project and device settings"`
	CheckUpdate cmd.CheckUpdateCmd `cmd:"" name:"check-update" help:"Compare the app version with its latest GitHub release"`
	Init        cmd.InitCmd        `cmd:"" help:"Write the current configuration to the config file"`
	Version     cmd.VersionCmd     `cmd:"" help:"Print the muxpack version"`
}

func newParser(cli *CLI) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("muxpack"),
		kong.Description("Package and deploy a muOS application."),
		kong.UsageOnError(),
	)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := logging.New(cli.Verbose)
	ctx.FatalIfErrorf(err)
	defer func() { _ = logger.Sync() }()

	project, err := config.Load(cli.Config)
	ctx.FatalIfErrorf(err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &types.AppContext{
		Version:    Version,
		ConfigPath: cli.Config,
		Project:    project,
		Logger:     logger,
		Runner:     utils.NewExecRunner(logger),
	}

	ctx.BindTo(runCtx, (*context.Context)(nil))
	err = ctx.Run(appCtx)
	ctx.FatalIfErrorf(err)
}
