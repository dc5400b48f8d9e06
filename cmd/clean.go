package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// CleanCmd removes the build and dist directories
type CleanCmd struct{}

func (cmd *CleanCmd) Run(_ context.Context, appCtx *types.AppContext) error {
	if err := requireProject(appCtx); err != nil {
		return err
	}

	detail, err := newEnv(appCtx).clean()
	if err != nil {
		return err
	}

	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ Clean: %s", detail)))
	return nil
}
