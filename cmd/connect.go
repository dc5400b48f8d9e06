package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lepinkainen/muxpack/remote"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// ConnectCmd checks the device settings from the environment and, with
// --probe, logs in once over ssh.
type ConnectCmd struct {
	DeviceFlags `embed:""`
	Probe       bool `help:"Log in to the device to check it is reachable"`
}

func (cmd *ConnectCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	target := cmd.Target(appCtx.Project)
	if err := target.Validate(); err != nil {
		return err
	}

	fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("Device %s using %s", target.Login(), target.Auth())))

	if !cmd.Probe {
		fmt.Println(ui.SuccessStyle.Render("✅ Connection settings are complete"))
		return nil
	}

	tools := []string{"ssh"}
	if target.Auth() == remote.AuthPassword {
		tools = append(tools, "sshpass")
	}
	if err := appCtx.RequireTools(tools...); err != nil {
		return err
	}

	sp := ui.StartSpinner(os.Stderr, fmt.Sprintf("Connecting to %s...", target.Host))
	err := remote.Probe(ctx, newEnv(appCtx).runner(), target)
	sp.Stop()
	if err != nil {
		return err
	}

	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ %s is reachable", target.Host)))
	return nil
}
