package pack

import (
	"path/filepath"
	"strings"

	"github.com/lepinkainen/muxpack/config"
)

// Layout holds the absolute paths the packaging steps operate on
type Layout struct {
	Root        string
	SourceDir   string
	BuildDir    string
	DistDir     string
	VersionFile string
	AppName     string
	Placeholder string
	ArchiveExt  string
}

// NewLayout resolves the project config into absolute paths
func NewLayout(p *config.Project) Layout {
	return Layout{
		Root:        p.Root,
		SourceDir:   p.Abs(p.SourceDir),
		BuildDir:    p.Abs(p.BuildDir),
		DistDir:     p.Abs(p.DistDir),
		VersionFile: p.Abs(p.VersionFile),
		AppName:     p.AppName,
		Placeholder: p.Placeholder,
		ArchiveExt:  p.ArchiveExt,
	}
}

// AppBuildDir is where the source tree is copied to
func (l Layout) AppBuildDir() string {
	return filepath.Join(l.BuildDir, l.AppName)
}

// StampedVersionFile is the version file inside the build copy
func (l Layout) StampedVersionFile() string {
	rel, err := filepath.Rel(l.SourceDir, l.VersionFile)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// version file lives outside the source tree; nothing in the build to stamp
		return ""
	}
	return filepath.Join(l.AppBuildDir(), rel)
}

// ArchiveName is the bundle file name for a version, e.g. RomM_1.2.3.muxapp
func (l Layout) ArchiveName(version string) string {
	return l.AppName + "_" + version + l.ArchiveExt
}

// ArchivePath is where the finished bundle ends up
func (l Layout) ArchivePath(version string) string {
	return filepath.Join(l.DistDir, l.ArchiveName(version))
}
