package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the project config file looked up in the project root
const DefaultFileName = "muxpack.yaml"

// Project describes where the application sources live and how the
// build, archive and device upload are laid out.
type Project struct {
	// Root is the project directory. It is not read from the file; Load sets it
	// to the directory containing the config file.
	Root string `yaml:"-"`

	AppName     string   `yaml:"app_name"`
	SourceDir   string   `yaml:"source_dir"`
	BuildDir    string   `yaml:"build_dir"`
	DistDir     string   `yaml:"dist_dir"`
	VersionFile string   `yaml:"version_file"`
	Placeholder string   `yaml:"placeholder"`
	ArchiveExt  string   `yaml:"archive_ext"`
	Excludes    []string `yaml:"excludes"`
	UseRsync    bool     `yaml:"use_rsync"` // copy with rsync when it is installed

	Remote     RemoteConfig `yaml:"remote"`
	Repository string       `yaml:"repository"` // owner/name on GitHub, used by check-update
}

// RemoteConfig holds the non-secret half of the device connection. Host and
// credentials always come from the environment.
type RemoteConfig struct {
	User           string `yaml:"user"`
	Port           int    `yaml:"port"`
	SDCard         int    `yaml:"sd_card"` // 1 = /mnt/mmc, 2 = /mnt/sdcard
	AppDir         string `yaml:"app_dir"`
	ArchiveDir     string `yaml:"archive_dir"`
	StrictHostKeys bool   `yaml:"strict_host_keys"`
}

// DefaultExcludes are the development artifacts that never ship to a device
var DefaultExcludes = []string{
	"__pycache__",
	"*.pyc",
	".env",
	".env.*",
	".DS_Store",
	"._*",
	".git",
	".venv",
	".idea",
	".vscode",
	"Thumbs.db",
}

// DefaultProject returns the layout of the RomM muOS app repository
func DefaultProject() *Project {
	excludes := make([]string, len(DefaultExcludes))
	copy(excludes, DefaultExcludes)

	return &Project{
		Root:        ".",
		AppName:     "RomM",
		SourceDir:   "RomM",
		BuildDir:    ".build",
		DistDir:     ".dist",
		VersionFile: "RomM/__version__.py",
		Placeholder: "<version>",
		ArchiveExt:  ".muxapp",
		Excludes:    excludes,
		UseRsync:    true,
		Remote: RemoteConfig{
			User:       "root",
			Port:       22,
			SDCard:     1,
			AppDir:     "MUOS/application",
			ArchiveDir: "ARCHIVE",
		},
		Repository: "rommapp/muos-app",
	}
}

// Load reads the config file at path. A missing file yields the defaults
// rooted at the file's directory.
func Load(path string) (*Project, error) {
	cfg := DefaultProject()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.Root = filepath.Dir(abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as YAML
func (p *Project) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects configs that would make the packaging steps act on
// unintended paths.
func (p *Project) Validate() error {
	var errs []error

	fields := []struct {
		key, value string
	}{
		{"app_name", p.AppName},
		{"source_dir", p.SourceDir},
		{"build_dir", p.BuildDir},
		{"dist_dir", p.DistDir},
		{"version_file", p.VersionFile},
		{"placeholder", p.Placeholder},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", f.key))
			continue
		}
		// clean removes these directories
		if f.key == "build_dir" || f.key == "dist_dir" {
			switch filepath.Clean(f.value) {
			case ".", "..", "/":
				errs = append(errs, fmt.Errorf("%s must not be %q", f.key, f.value))
			}
		}
	}

	// clean deletes the output dirs and build copies the sources into one
	src := filepath.Clean(p.Abs(p.SourceDir))
	for _, out := range []struct{ key, value string }{{"build_dir", p.BuildDir}, {"dist_dir", p.DistDir}} {
		if strings.TrimSpace(out.value) == "" || strings.TrimSpace(p.SourceDir) == "" {
			continue
		}
		dir := filepath.Clean(p.Abs(out.value))
		if nested(src, dir) || nested(dir, src) {
			errs = append(errs, fmt.Errorf("%s %q overlaps source_dir %q", out.key, out.value, p.SourceDir))
		}
	}

	if strings.ContainsAny(p.AppName, `/\`) {
		errs = append(errs, errors.New("app_name must not contain path separators"))
	}

	if p.Remote.SDCard != 1 && p.Remote.SDCard != 2 {
		errs = append(errs, fmt.Errorf("remote.sd_card must be 1 or 2, got %d", p.Remote.SDCard))
	}
	if p.Remote.Port <= 0 || p.Remote.Port > 65535 {
		errs = append(errs, fmt.Errorf("remote.port out of range: %d", p.Remote.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// nested reports whether path is dir or lies below it
func nested(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Abs resolves a project-relative path against Root
func (p *Project) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}
