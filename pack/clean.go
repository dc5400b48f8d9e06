package pack

import (
	"fmt"
	"os"
)

// Clean removes the build and dist directories. Directories that do not
// exist are not an error.
func Clean(l Layout) ([]string, error) {
	var removed []string
	for _, dir := range []string{l.BuildDir, l.DistDir} {
		if _, err := os.Lstat(dir); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
