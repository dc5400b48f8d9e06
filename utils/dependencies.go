package utils

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrToolMissing is returned when a required external tool is not in PATH
var ErrToolMissing = errors.New("required tool not found in PATH")

// lookPath is swapped out in tests
var lookPath = exec.LookPath

// HasTool reports whether the named tool is available in PATH
func HasTool(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// RequireTools checks that every named tool is available in PATH
func RequireTools(names ...string) error {
	for _, name := range names {
		if !HasTool(name) {
			return fmt.Errorf("%w: %s. %s", ErrToolMissing, name, getInstallationInstructions(name))
		}
	}
	return nil
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions(tool string) string {
	pkg := tool
	if tool == "ssh" {
		pkg = "openssh-client"
	}

	switch runtime.GOOS {
	case "darwin":
		if tool == "sshpass" {
			return "Install with: brew install hudochenkov/sshpass/sshpass"
		}
		if tool == "ssh" {
			return "ssh ships with macOS; check your PATH"
		}
		return fmt.Sprintf("Install with: brew install %s", pkg)
	case "linux":
		return fmt.Sprintf("Install with: apt-get install %s (Ubuntu/Debian) or yum install %s (CentOS/RHEL)", pkg, tool)
	case "windows":
		return fmt.Sprintf("Install %s inside WSL or via MSYS2 and add it to PATH", tool)
	default:
		return fmt.Sprintf("Install %s with your system package manager", tool)
	}
}
