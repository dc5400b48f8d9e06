package remote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/muxpack/utils"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr error
	}{
		{"missing host", Target{KeyPath: "/k"}, ErrMissingHost},
		{"missing host and credentials reports host first", Target{}, ErrMissingHost},
		{"missing credentials", Target{Host: "10.0.0.2"}, ErrMissingCredentials},
		{"key only", Target{Host: "10.0.0.2", KeyPath: "/k"}, nil},
		{"password only", Target{Host: "10.0.0.2", Password: "root"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthPrefersKey(t *testing.T) {
	assert.Equal(t, AuthKey, Target{KeyPath: "/k", Password: "pw"}.Auth())
	assert.Equal(t, AuthPassword, Target{Password: "pw"}.Auth())
	assert.Equal(t, AuthNone, Target{}.Auth())

	assert.Equal(t, "private key", AuthKey.String())
	assert.Equal(t, "password", AuthPassword.String())
	assert.Equal(t, "none", AuthNone.String())
}

func TestDestination(t *testing.T) {
	assert.Equal(t, "root@10.0.0.2:/mnt/mmc/ARCHIVE/", Target{Host: "10.0.0.2", User: "root"}.Destination("/mnt/mmc/ARCHIVE/"))
	assert.Equal(t, "10.0.0.2:/tmp", Target{Host: "10.0.0.2"}.Destination("/tmp"))
}

func TestSyncCommand_Key(t *testing.T) {
	target := Target{Host: "10.0.0.2", User: "root", Port: 22, KeyPath: "/home/me/.ssh/muos", Password: "ignored"}

	c, err := SyncCommand(target, "/work/.build/RomM", "/mnt/mmc/MUOS/application/", SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, "rsync", c.Name)
	assert.Empty(t, c.Env)
	assert.Equal(t, []string{
		"-avz", "--progress",
		"-e", "ssh -i /home/me/.ssh/muos -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null",
		"/work/.build/RomM",
		"root@10.0.0.2:/mnt/mmc/MUOS/application/",
	}, c.Args)
	assert.NotContains(t, c.String(), "ignored")
}

func TestSyncCommand_Password(t *testing.T) {
	target := Target{Host: "10.0.0.2", User: "root", Port: 2222, Password: "s3cret"}

	c, err := SyncCommand(target, "/work/.dist/RomM_1.0.0.muxapp", "/mnt/mmc/ARCHIVE/", SyncOptions{Delete: true})
	require.NoError(t, err)

	assert.Equal(t, "sshpass", c.Name)
	assert.Equal(t, []string{"SSHPASS=s3cret"}, c.Env)
	assert.Equal(t, "-e", c.Args[0])
	assert.Equal(t, "rsync", c.Args[1])
	assert.Contains(t, c.Args, "--delete")
	assert.Contains(t, c.Args, "ssh -p 2222 -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -o PubkeyAuthentication=no")

	for _, arg := range c.Args {
		assert.NotContains(t, arg, "s3cret", "password must not appear on the command line")
	}
}

func TestSyncCommand_KeyPathWithSpaces(t *testing.T) {
	tests := []struct {
		keyPath string
		want    string
	}{
		{"/home/me/My Keys/id_muos", "ssh -i '/home/me/My Keys/id_muos' -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null"},
		{"/home/me/Bob's Keys/id", `ssh -i "/home/me/Bob's Keys/id" -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null`},
	}

	for _, tt := range tests {
		t.Run(tt.keyPath, func(t *testing.T) {
			target := Target{Host: "10.0.0.2", User: "root", Port: 22, KeyPath: tt.keyPath}

			c, err := SyncCommand(target, "src", "dst", SyncOptions{})
			require.NoError(t, err)
			assert.Contains(t, c.Args, tt.want)
		})
	}
}

func TestSyncCommand_UnquotableKeyPath(t *testing.T) {
	target := Target{Host: "10.0.0.2", KeyPath: `/keys/it's "mine"`}

	_, err := SyncCommand(target, "src", "dst", SyncOptions{})
	assert.ErrorContains(t, err, "both quote characters")
}

func TestSyncCommand_StrictHostKeys(t *testing.T) {
	target := Target{Host: "h", KeyPath: "/k", StrictHostKeys: true}

	c, err := SyncCommand(target, "a", "b", SyncOptions{DryRun: true})
	require.NoError(t, err)
	assert.Contains(t, c.Args, "--dry-run")
	assert.Contains(t, c.Args, "ssh -i /k")
}

func TestSync_NoTransferWithoutCredentials(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr error
	}{
		{"no credentials", Target{Host: "10.0.0.2", User: "root"}, ErrMissingCredentials},
		{"no host", Target{User: "root", KeyPath: "/k"}, ErrMissingHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &utils.RecordingRunner{}

			err := Sync(context.Background(), runner, nil, tt.target, "/src", "/dst", SyncOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, runner.Calls(), "no transfer should be attempted")
		})
	}
}

func TestSync_RunsCommand(t *testing.T) {
	runner := &utils.RecordingRunner{}
	target := Target{Host: "10.0.0.2", User: "root", KeyPath: "/k"}

	require.NoError(t, Sync(context.Background(), runner, nil, target, "/src", "/dst/", SyncOptions{}))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "rsync", calls[0].Name)
	assert.Equal(t, "root@10.0.0.2:/dst/", calls[0].Args[len(calls[0].Args)-1])
}

func TestSync_PropagatesFailure(t *testing.T) {
	rsyncErr := errors.New("exit status 12")
	runner := &utils.RecordingRunner{Errors: map[string]error{"rsync": rsyncErr}}
	target := Target{Host: "10.0.0.2", KeyPath: "/k"}

	err := Sync(context.Background(), runner, nil, target, "/src", "/dst", SyncOptions{})
	assert.ErrorIs(t, err, rsyncErr)
}

func TestProbe(t *testing.T) {
	runner := &utils.RecordingRunner{}
	target := Target{Host: "10.0.0.2", User: "root", KeyPath: "/k"}

	require.NoError(t, Probe(context.Background(), runner, target))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ssh", calls[0].Name)
	line := strings.Join(calls[0].Args, " ")
	assert.Contains(t, line, "BatchMode=yes")
	assert.True(t, strings.HasSuffix(line, "root@10.0.0.2 true"))
}

func TestProbe_Password(t *testing.T) {
	target := Target{Host: "10.0.0.2", User: "root", Password: "pw"}

	c, err := ProbeCommand(target)
	require.NoError(t, err)
	assert.Equal(t, "sshpass", c.Name)
	assert.Equal(t, []string{"-e", "ssh"}, c.Args[:2])
}

func TestRequiredTools(t *testing.T) {
	assert.Equal(t, []string{"rsync", "ssh"}, RequiredTools(Target{KeyPath: "/k"}))
	assert.Equal(t, []string{"rsync", "ssh", "sshpass"}, RequiredTools(Target{Password: "pw"}))
}

func TestPaths(t *testing.T) {
	p := Paths{SDCard: 1, AppDir: "MUOS/application", ArchiveDir: "ARCHIVE"}

	app, err := p.ApplicationDir()
	require.NoError(t, err)
	assert.Equal(t, "/mnt/mmc/MUOS/application/", app)

	archive, err := p.ArchiveDirPath()
	require.NoError(t, err)
	assert.Equal(t, "/mnt/mmc/ARCHIVE/", archive)

	p.SDCard = 2
	app, err = p.ApplicationDir()
	require.NoError(t, err)
	assert.Equal(t, "/mnt/sdcard/MUOS/application/", app)

	p.SDCard = 5
	_, err = p.Mount()
	assert.Error(t, err)
}
