package pack

import (
	"bytes"
	"fmt"
	"os"
)

// Stamp replaces every occurrence of placeholder in the file with version.
// It reports whether anything was replaced; a file without the placeholder
// is left untouched.
func Stamp(path, placeholder, version string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if placeholder == "" || !bytes.Contains(data, []byte(placeholder)) {
		return false, nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	stamped := bytes.ReplaceAll(data, []byte(placeholder), []byte(version))
	if err := os.WriteFile(path, stamped, fi.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
