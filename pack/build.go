package pack

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/utils"
)

// Copy methods reported in BuildResult
const (
	MethodNative = "native"
	MethodRsync  = "rsync"
)

// BuildOptions configures Build
type BuildOptions struct {
	Layout   Layout
	Version  string
	Excludes Excludes

	// UseRsync copies with rsync when it is installed, falling back to the
	// built-in copy otherwise. Runner is required when set.
	UseRsync bool
	Runner   utils.Runner
	Logger   *zap.Logger
}

// BuildResult describes a finished build
type BuildResult struct {
	AppDir      string
	VersionFile string
	Stamped     bool
	Method      string
	Stats       *CopyStats // nil when rsync did the copy
}

// Build assembles the version-stamped application tree in the build directory
func Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := opts.Layout

	if opts.Version == "" {
		return nil, errors.New("build version must not be empty")
	}

	if fi, err := os.Stat(l.SourceDir); err != nil {
		return nil, fmt.Errorf("cannot access source directory: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", l.SourceDir)
	}

	appDir := l.AppBuildDir()
	if err := os.RemoveAll(appDir); err != nil {
		return nil, fmt.Errorf("failed to remove previous build: %w", err)
	}
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	result := &BuildResult{AppDir: appDir}

	if opts.UseRsync && opts.Runner != nil && utils.HasTool("rsync") {
		logger.Debug("copying with rsync", zap.String("src", l.SourceDir), zap.String("dst", appDir))
		if err := opts.Runner.Run(ctx, rsyncCopyCommand(l.SourceDir, appDir, opts.Excludes)); err != nil {
			return nil, fmt.Errorf("failed to copy sources: %w", err)
		}
		result.Method = MethodRsync
	} else {
		logger.Debug("copying natively", zap.String("src", l.SourceDir), zap.String("dst", appDir))
		stats, err := CopyTree(l.SourceDir, appDir, opts.Excludes)
		if err != nil {
			return nil, err
		}
		result.Method = MethodNative
		result.Stats = stats
		logger.Debug("copied sources",
			zap.Int("files", stats.Files),
			zap.Int("dirs", stats.Dirs),
			zap.Int64("bytes", stats.Bytes),
			zap.Int("skipped", len(stats.Skipped)))
	}

	result.VersionFile = l.StampedVersionFile()
	if result.VersionFile == "" {
		logger.Warn("version file is outside the source tree, nothing stamped", zap.String("file", l.VersionFile))
		return result, nil
	}

	stamped, err := Stamp(result.VersionFile, l.Placeholder, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp version: %w", err)
	}
	result.Stamped = stamped
	logger.Debug("stamped version", zap.String("file", result.VersionFile), zap.Bool("replaced", stamped))

	return result, nil
}

// rsyncCopyCommand copies the contents of src into dst
func rsyncCopyCommand(src, dst string, excludes Excludes) utils.Command {
	args := []string{"-a", "--delete"}
	for _, p := range excludes.Patterns() {
		args = append(args, "--exclude", p)
	}
	args = append(args, withSlash(src), withSlash(dst))
	return utils.Command{Name: "rsync", Args: args}
}

func withSlash(p string) string {
	if len(p) > 0 && p[len(p)-1] == '/' {
		return p
	}
	return p + "/"
}
