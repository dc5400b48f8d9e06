package pack

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyStats summarizes a tree copy
type CopyStats struct {
	Files   int
	Dirs    int
	Links   int
	Bytes   int64
	Skipped []string // excluded paths, relative to the source root
}

// CopyTree copies src into dst, skipping excluded paths. Excluded directories
// are not descended into. File modes are kept and symlinks are recreated
// rather than followed.
func CopyTree(src, dst string, excludes Excludes) (*CopyStats, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("cannot access source %s: %w", src, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", src)
	}

	stats := &CopyStats{}
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if rel != "." && excludes.Match(rel) {
			stats.Skipped = append(stats.Skipped, filepath.ToSlash(rel))
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, info.Mode().Perm()|0700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			if rel != "." {
				stats.Dirs++
			}
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", path, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
			stats.Links++
		case info.Mode().IsRegular():
			n, err := copyFile(path, target, info.Mode().Perm())
			if err != nil {
				return err
			}
			stats.Files++
			stats.Bytes += n
		default:
			// sockets, devices and pipes have no place in an app bundle
			stats.Skipped = append(stats.Skipped, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return stats, nil
}

func copyFile(src, dst string, perm os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return n, nil
}
