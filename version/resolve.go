package version

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/lepinkainen/muxpack/utils"
)

// DefaultPlaceholder is the sentinel a development checkout keeps in its
// version file until a release build stamps it.
const DefaultPlaceholder = "<version>"

// ErrNoVersionLiteral is returned when the version file has no non-empty
// version assignment
var ErrNoVersionLiteral = errors.New("no version assignment found")

// matches version = "..." and __version__ = '...' at the start of a line
var literalRegex = regexp.MustCompile(`(?im)^[ \t]*_*version_*[ \t]*=[ \t]*(?:"([^"\n]*)"|'([^'\n]*)')`)

// ReadLiteral returns the string assigned to version in the version file, so
// `version = "1.2.3"` yields 1.2.3. Docstrings and other strings are ignored.
func ReadLiteral(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read version file: %w", err)
	}

	m := literalRegex.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("%w in %s", ErrNoVersionLiteral, path)
	}
	literal := string(m[1])
	if m[1] == nil {
		literal = string(m[2])
	}
	if strings.TrimSpace(literal) == "" {
		return "", fmt.Errorf("%w in %s: the version is empty", ErrNoVersionLiteral, path)
	}
	return literal, nil
}

// Sanitize makes a version usable in file names: path separators become
// underscores and surrounding whitespace is dropped.
func Sanitize(v string) string {
	v = strings.TrimSpace(v)
	return strings.NewReplacer("/", "_", `\`, "_").Replace(v)
}

// CurrentBranch returns the checked out git branch of dir
func CurrentBranch(ctx context.Context, runner utils.Runner, dir string) (string, error) {
	out, err := runner.Output(ctx, utils.Command{
		Name: "git",
		Args: []string{"rev-parse", "--abbrev-ref", "HEAD"},
		Dir:  dir,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return "", errors.New("failed to get current branch: git returned an empty name")
	}
	return branch, nil
}

// ResolveOptions controls Resolve
type ResolveOptions struct {
	File        string // version file path
	Placeholder string // defaults to DefaultPlaceholder
	RepoDir     string // where git is run when the placeholder is found
	Runner      utils.Runner
}

// Resolve returns the version to stamp into a build: the literal from the
// version file, or the current branch name when the file still holds the
// placeholder.
func Resolve(ctx context.Context, opts ResolveOptions) (string, error) {
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	literal, err := ReadLiteral(opts.File)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(literal) != placeholder {
		return Sanitize(literal), nil
	}

	if opts.Runner == nil {
		return "", errors.New("version placeholder found but no command runner configured")
	}
	branch, err := CurrentBranch(ctx, opts.Runner, opts.RepoDir)
	if err != nil {
		return "", err
	}
	return Sanitize(branch), nil
}
