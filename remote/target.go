package remote

import (
	"errors"
	"fmt"
	"path"
	"strconv"
)

// Environment variables read for the device connection
const (
	EnvHost     = "DEVICE_IP_ADDRESS"
	EnvKeyPath  = "PRIVATE_KEY_PATH"
	EnvPassword = "SSH_PASSWORD"
)

var (
	// ErrMissingHost is returned when DEVICE_IP_ADDRESS is not set
	ErrMissingHost = errors.New(EnvHost + " is not set")
	// ErrMissingCredentials is returned when no credential mechanism is configured
	ErrMissingCredentials = errors.New("neither " + EnvKeyPath + " nor " + EnvPassword + " is set")
)

// AuthMethod is the credential mechanism used for a transfer
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthKey
	AuthPassword
)

func (a AuthMethod) String() string {
	switch a {
	case AuthKey:
		return "private key"
	case AuthPassword:
		return "password"
	default:
		return "none"
	}
}

// Target is a device reachable over SSH
type Target struct {
	Host     string
	User     string
	Port     int
	KeyPath  string
	Password string

	// StrictHostKeys keeps ssh's host key checking on. Devices are usually
	// reflashed often enough that it is off by default.
	StrictHostKeys bool
}

// Validate checks the preconditions for any remote operation: a host, then
// at least one credential mechanism.
func (t Target) Validate() error {
	if t.Host == "" {
		return ErrMissingHost
	}
	if t.Auth() == AuthNone {
		return ErrMissingCredentials
	}
	return nil
}

// Auth returns the credential mechanism to use. A private key wins over a
// password when both are set.
func (t Target) Auth() AuthMethod {
	switch {
	case t.KeyPath != "":
		return AuthKey
	case t.Password != "":
		return AuthPassword
	default:
		return AuthNone
	}
}

// Login is user@host
func (t Target) Login() string {
	if t.User == "" {
		return t.Host
	}
	return t.User + "@" + t.Host
}

// Destination is user@host:path in rsync/scp syntax
func (t Target) Destination(remotePath string) string {
	return t.Login() + ":" + remotePath
}

// sshOptions are the ssh flags shared by rsync's remote shell and probes
func (t Target) sshOptions() []string {
	var opts []string
	if t.Auth() == AuthKey {
		opts = append(opts, "-i", t.KeyPath)
	}
	if t.Port != 0 && t.Port != 22 {
		opts = append(opts, "-p", strconv.Itoa(t.Port))
	}
	if !t.StrictHostKeys {
		opts = append(opts, "-o", "StrictHostKeyChecking=no", "-o", "UserKnownHostsFile=/dev/null")
	}
	if t.Auth() == AuthPassword {
		// without this ssh may try keys first and hit the device's auth limit
		opts = append(opts, "-o", "PubkeyAuthentication=no")
	}
	return opts
}

// Device mount points on muOS
const (
	MountSD1 = "/mnt/mmc"
	MountSD2 = "/mnt/sdcard"
)

// Paths resolves where things go on the device
type Paths struct {
	SDCard     int
	AppDir     string // relative to the card mount, e.g. MUOS/application
	ArchiveDir string // relative to the card mount, e.g. ARCHIVE
}

// Mount returns the mount point of the configured SD card
func (p Paths) Mount() (string, error) {
	switch p.SDCard {
	case 0, 1:
		return MountSD1, nil
	case 2:
		return MountSD2, nil
	default:
		return "", fmt.Errorf("unknown SD card %d, expected 1 or 2", p.SDCard)
	}
}

// ApplicationDir is the directory application trees are synced into
func (p Paths) ApplicationDir() (string, error) {
	mount, err := p.Mount()
	if err != nil {
		return "", err
	}
	return path.Join(mount, p.AppDir) + "/", nil
}

// ArchiveDirPath is the directory bundles are synced into
func (p Paths) ArchiveDirPath() (string, error) {
	mount, err := p.Mount()
	if err != nil {
		return "", err
	}
	return path.Join(mount, p.ArchiveDir) + "/", nil
}
