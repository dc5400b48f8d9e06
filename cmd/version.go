package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/muxpack/types"
)

// VersionCmd prints the tool's own version
type VersionCmd struct{}

func (cmd *VersionCmd) Run(_ context.Context, appCtx *types.AppContext) error {
	fmt.Printf("muxpack %s\n", appCtx.ToolVersion())
	return nil
}
