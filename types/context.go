package types

import (
	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/config"
	"github.com/lepinkainen/muxpack/utils"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version    string
	ConfigPath string
	Project    *config.Project
	Logger     *zap.Logger
	Runner     utils.Runner

	// CheckTools verifies external tools are installed; defaults to
	// utils.RequireTools
	CheckTools func(names ...string) error
}

// RequireTools runs the configured tool check
func (a *AppContext) RequireTools(names ...string) error {
	if a != nil && a.CheckTools != nil {
		return a.CheckTools(names...)
	}
	return utils.RequireTools(names...)
}

// ToolVersion returns the running binary's version, tolerating a nil context
func (a *AppContext) ToolVersion() string {
	if a == nil || a.Version == "" {
		return DefaultVersion
	}
	return a.Version
}
