package utils

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Filesystem types whose change notifications are unreliable
var networkFSTypes = map[string]bool{
	"nfs":         true,
	"nfs4":        true,
	"cifs":        true,
	"smb3":        true,
	"smbfs":       true,
	"9p":          true,
	"davfs":       true,
	"fuse.sshfs":  true,
	"fuse.rclone": true,
}

type mount struct {
	dir    string
	fsType string
}

var mountTable = "/proc/mounts"

// IsNetworkPath reports whether path lives on a network filesystem. Linux
// consults the mount table; elsewhere only UNC paths and /Volumes are
// recognised.
func IsNetworkPath(path string) bool {
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		return true
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	switch runtime.GOOS {
	case "linux":
		f, err := os.Open(mountTable)
		if err != nil {
			return false
		}
		defer func() { _ = f.Close() }()
		return networkFSTypes[fsTypeFor(abs, parseMounts(f))]
	case "darwin":
		return strings.HasPrefix(abs, "/Volumes/")
	default:
		return false
	}
}

// parseMounts reads /proc/mounts formatted lines
func parseMounts(r io.Reader) []mount {
	var mounts []mount
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		// spaces in mount points are octal escaped
		dir := strings.ReplaceAll(fields[1], `\040`, " ")
		mounts = append(mounts, mount{dir: dir, fsType: fields[2]})
	}
	return mounts
}

// fsTypeFor returns the type of the longest mount point containing path
func fsTypeFor(path string, mounts []mount) string {
	best, fsType := -1, ""
	for _, m := range mounts {
		if !within(path, m.dir) {
			continue
		}
		if len(m.dir) > best {
			best, fsType = len(m.dir), m.fsType
		}
	}
	return fsType
}

func within(path, dir string) bool {
	if dir == "/" || path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, "/")+"/")
}
