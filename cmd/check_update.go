package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
	"github.com/lepinkainen/muxpack/updates"
)

// CheckUpdateCmd compares the project's version with its latest GitHub release
type CheckUpdateCmd struct {
	Repo   string `help:"GitHub repository as owner/name; defaults to the config"`
	Token  string `env:"GITHUB_TOKEN" help:"GitHub token for a higher API rate limit"`
	APIURL string `name:"api-url" hidden:"" default:"https://api.github.com"`
}

func (cmd *CheckUpdateCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	repo := cmd.Repo
	if repo == "" {
		repo = appCtx.Project.Repository
	}

	current, err := newEnv(appCtx).resolveVersion(ctx, "")
	if err != nil {
		return err
	}

	client := updates.NewClient(cmd.Token)
	if cmd.APIURL != "" {
		client.BaseURL = cmd.APIURL
	}

	sp := ui.StartSpinner(os.Stderr, fmt.Sprintf("Checking %s...", repo))
	check, err := client.CheckForUpdate(ctx, repo, current)
	sp.Stop()
	if err != nil {
		return err
	}

	if !check.UpdateAvailable {
		fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ %s is up to date (latest release %s)", current, check.Latest)))
		return nil
	}

	fmt.Println(ui.WarnStyle.Render(fmt.Sprintf("⬆️  %s is available (local %s)", check.Latest, current)))
	if check.DownloadURL != "" {
		fmt.Println(ui.InfoStyle.Render(check.DownloadURL))
	}
	return nil
}
