package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lepinkainen/muxpack/config"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// InitCmd writes the effective configuration to the config file so it can be
// edited.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file"`
}

func (cmd *InitCmd) Run(_ context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	path := appCtx.ConfigPath
	if path == "" {
		path = appCtx.Project.Abs(config.DefaultFileName)
	}

	if _, err := os.Stat(path); err == nil && !cmd.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := appCtx.Project.Save(path); err != nil {
		return err
	}

	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ Wrote %s", path)))
	return nil
}
