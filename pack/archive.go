package pack

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrNothingBuilt is returned when archiving before a build exists
var ErrNothingBuilt = errors.New("build directory is missing, run build first")

// ProgressFunc is called after each archive entry is written
type ProgressFunc func(done, total int, name string)

// ArchiveOptions configures Archive
type ArchiveOptions struct {
	Layout   Layout
	Version  string
	Excludes Excludes
	Progress ProgressFunc
	Logger   *zap.Logger
}

// ArchiveResult describes a finished archive
type ArchiveResult struct {
	Path    string
	Entries int
	Size    int64
}

// Archive zips the contents of the build directory into the dist directory as
// <AppName>_<version><ArchiveExt>. Entry names are relative to the build
// directory, so the bundle unpacks to the app directory.
func Archive(ctx context.Context, opts ArchiveOptions) (*ArchiveResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := opts.Layout

	if opts.Version == "" {
		return nil, errors.New("archive version must not be empty")
	}

	entries, err := collectEntries(l.BuildDir, opts.Excludes)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(l.DistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dist directory: %w", err)
	}

	// write next to the destination so the final rename stays on one filesystem
	tmp, err := os.CreateTemp(l.DistDir, ".archive-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	zw := zip.NewWriter(tmp)
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			_ = tmp.Close()
			return nil, err
		}
		if err := addEntry(zw, e); err != nil {
			_ = zw.Close()
			_ = tmp.Close()
			return nil, err
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(entries), e.name)
		}
	}

	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	// CreateTemp makes the file private
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	dest := l.ArchivePath(opts.Version)
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}

	fi, err := os.Stat(dest)
	if err != nil {
		return nil, err
	}
	logger.Debug("archive written", zap.String("path", dest), zap.Int("entries", len(entries)), zap.Int64("size", fi.Size()))

	return &ArchiveResult{Path: dest, Entries: len(entries), Size: fi.Size()}, nil
}

type archiveEntry struct {
	path string // on disk
	name string // inside the archive, slash separated
	info fs.FileInfo
}

func collectEntries(root string, excludes Excludes) ([]archiveEntry, error) {
	fi, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNothingBuilt
		}
		return nil, fmt.Errorf("cannot access build directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("build path %s is not a directory", root)
	}

	var entries []archiveEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if excludes.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !d.IsDir() && !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
			return nil
		}

		name := filepath.ToSlash(rel)
		if d.IsDir() {
			name += "/"
		}
		entries = append(entries, archiveEntry{path: path, name: name, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan build directory: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrNothingBuilt
	}
	return entries, nil
}

func addEntry(zw *zip.Writer, e archiveEntry) error {
	header, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", e.name, err)
	}
	header.Name = e.name

	switch {
	case e.info.IsDir():
		header.Method = zip.Store
		_, err := zw.CreateHeader(header)
		return err
	case e.info.Mode()&os.ModeSymlink != 0:
		link, err := os.Readlink(e.path)
		if err != nil {
			return fmt.Errorf("failed to read symlink %s: %w", e.path, err)
		}
		header.Method = zip.Store
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, link)
		return err
	}

	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", e.name, err)
	}

	f, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", e.path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to compress %s: %w", e.name, err)
	}
	return nil
}
