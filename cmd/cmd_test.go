package cmd

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/config"
	"github.com/lepinkainen/muxpack/pack"
	"github.com/lepinkainen/muxpack/remote"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
	"github.com/lepinkainen/muxpack/utils"
)

type fixture struct {
	app    *types.AppContext
	runner *utils.RecordingRunner
	tools  []string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newFixture lays out a small app tree with the given version literal
func newFixture(t *testing.T, versionLiteral string) *fixture {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "RomM", "__version__.py"), `version = "`+versionLiteral+`"`+"\n")
	writeFile(t, filepath.Join(root, "RomM", "main.py"), "print('hi')\n")
	writeFile(t, filepath.Join(root, "RomM", "__pycache__", "main.cpython-311.pyc"), "bytecode")
	writeFile(t, filepath.Join(root, "RomM", ".env"), "SECRET=1\n")

	p := config.DefaultProject()
	p.Root = root
	p.UseRsync = false

	f := &fixture{runner: &utils.RecordingRunner{
		Outputs: map[string][]byte{"git": []byte("feature/sd-switch")},
	}}
	f.app = &types.AppContext{
		Version: "test",
		Project: p,
		Logger:  zap.NewNop(),
		Runner:  f.runner,
		CheckTools: func(names ...string) error {
			f.tools = append(f.tools, names...)
			return nil
		},
	}
	return f
}

func (f *fixture) root() string {
	return f.app.Project.Root
}

func (f *fixture) transfers() []utils.Command {
	var out []utils.Command
	for _, c := range f.runner.Calls() {
		if c.Name == "rsync" || c.Name == "sshpass" || c.Name == "ssh" {
			out = append(out, c)
		}
	}
	return out
}

func keyFlags() DeviceFlags {
	return DeviceFlags{Host: "192.168.1.50", KeyPath: "/keys/muos"}
}

func TestRemoteCommands_MissingSettings(t *testing.T) {
	tests := []struct {
		name  string
		flags DeviceFlags
		want  error
	}{
		{"no host", DeviceFlags{KeyPath: "/keys/muos"}, remote.ErrMissingHost},
		{"no host or credentials", DeviceFlags{}, remote.ErrMissingHost},
		{"no credentials", DeviceFlags{Host: "192.168.1.50"}, remote.ErrMissingCredentials},
	}

	for _, tt := range tests {
		commands := map[string]func(f *fixture) error{
			"upload": func(f *fixture) error {
				return (&UploadCmd{DeviceFlags: tt.flags}).Run(context.Background(), f.app)
			},
			"upload-app": func(f *fixture) error {
				return (&UploadAppCmd{DeviceFlags: tt.flags}).Run(context.Background(), f.app)
			},
			"deploy": func(f *fixture) error {
				return (&DeployCmd{DeviceFlags: tt.flags, Plain: true}).Run(context.Background(), f.app)
			},
			"connect": func(f *fixture) error {
				return (&ConnectCmd{DeviceFlags: tt.flags, Probe: true}).Run(context.Background(), f.app)
			},
		}

		for name, run := range commands {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				f := newFixture(t, "1.2.3")

				err := run(f)

				require.ErrorIs(t, err, tt.want)
				assert.Empty(t, f.runner.Calls(), "no command may run")
				assert.NoDirExists(t, filepath.Join(f.root(), ".build"))
			})
		}
	}
}

func TestBuildCmd_StampsBranchVersion(t *testing.T) {
	f := newFixture(t, "<version>")

	require.NoError(t, (&BuildCmd{}).Run(context.Background(), f.app))

	data, err := os.ReadFile(filepath.Join(f.root(), ".build", "RomM", "__version__.py"))
	require.NoError(t, err)
	assert.Equal(t, `version = "feature_sd-switch"`+"\n", string(data))

	assert.FileExists(t, filepath.Join(f.root(), ".build", "RomM", "main.py"))
	assert.NoDirExists(t, filepath.Join(f.root(), ".build", "RomM", "__pycache__"))
	assert.NoFileExists(t, filepath.Join(f.root(), ".build", "RomM", ".env"))

	calls := f.runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "git", calls[0].Name)
}

func TestBuildCmd_VersionOverride(t *testing.T) {
	f := newFixture(t, "<version>")

	require.NoError(t, (&BuildCmd{Version: "release/2.0"}).Run(context.Background(), f.app))

	data, err := os.ReadFile(filepath.Join(f.root(), ".build", "RomM", "__version__.py"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"release_2.0"`)
	assert.Empty(t, f.runner.Calls(), "an explicit version needs no git")
}

func TestZipCmd(t *testing.T) {
	t.Run("builds first", func(t *testing.T) {
		f := newFixture(t, "1.2.3")

		require.NoError(t, (&ZipCmd{}).Run(context.Background(), f.app))

		archive := filepath.Join(f.root(), ".dist", "RomM_1.2.3.muxapp")
		zr, err := zip.OpenReader(archive)
		require.NoError(t, err)
		defer zr.Close()

		var names []string
		for _, file := range zr.File {
			names = append(names, file.Name)
		}
		assert.Contains(t, names, "RomM/main.py")
		assert.Contains(t, names, "RomM/__version__.py")
		for _, n := range names {
			assert.NotContains(t, n, "__pycache__")
			assert.NotContains(t, n, ".env")
		}
	})

	t.Run("no build without a build dir", func(t *testing.T) {
		f := newFixture(t, "1.2.3")

		err := (&ZipCmd{NoBuild: true}).Run(context.Background(), f.app)
		require.ErrorIs(t, err, pack.ErrNothingBuilt)
	})
}

func TestCleanCmd(t *testing.T) {
	f := newFixture(t, "1.2.3")
	require.NoError(t, (&ZipCmd{}).Run(context.Background(), f.app))

	require.NoError(t, (&CleanCmd{}).Run(context.Background(), f.app))

	assert.NoDirExists(t, filepath.Join(f.root(), ".build"))
	assert.NoDirExists(t, filepath.Join(f.root(), ".dist"))
	assert.DirExists(t, filepath.Join(f.root(), "RomM"), "sources must survive clean")

	// Cleaning twice is fine
	require.NoError(t, (&CleanCmd{}).Run(context.Background(), f.app))
}

func TestUploadCmd(t *testing.T) {
	t.Run("key auth", func(t *testing.T) {
		f := newFixture(t, "1.2.3")
		require.NoError(t, (&BuildCmd{}).Run(context.Background(), f.app))

		cmd := &UploadCmd{DeviceFlags: keyFlags(), UploadFlags: UploadFlags{Delete: true}}
		require.NoError(t, cmd.Run(context.Background(), f.app))

		calls := f.transfers()
		require.Len(t, calls, 1)
		c := calls[0]
		assert.Equal(t, "rsync", c.Name)
		assert.Contains(t, c.Args, "--delete")
		assert.Equal(t, filepath.Join(f.root(), ".build", "RomM"), c.Args[len(c.Args)-2])
		assert.Equal(t, "root@192.168.1.50:/mnt/mmc/MUOS/application/", c.Args[len(c.Args)-1])
		assert.Contains(t, strings.Join(c.Args, " "), "-i /keys/muos")
		assert.Equal(t, []string{"rsync", "ssh"}, f.tools)
	})

	t.Run("password auth on the second card", func(t *testing.T) {
		f := newFixture(t, "1.2.3")
		require.NoError(t, (&BuildCmd{}).Run(context.Background(), f.app))

		flags := DeviceFlags{Host: "muos.local", Password: "hunter2", SDCard: 2}
		require.NoError(t, (&UploadCmd{DeviceFlags: flags}).Run(context.Background(), f.app))

		calls := f.transfers()
		require.Len(t, calls, 1)
		c := calls[0]
		assert.Equal(t, "sshpass", c.Name)
		assert.Equal(t, []string{"SSHPASS=hunter2"}, c.Env)
		assert.NotContains(t, c.Args, "hunter2")
		assert.NotContains(t, c.String(), "hunter2")
		assert.Equal(t, "root@muos.local:/mnt/sdcard/MUOS/application/", c.Args[len(c.Args)-1])
		assert.Contains(t, f.tools, "sshpass")
	})

	t.Run("nothing built", func(t *testing.T) {
		f := newFixture(t, "1.2.3")

		err := (&UploadCmd{DeviceFlags: keyFlags()}).Run(context.Background(), f.app)
		require.ErrorIs(t, err, pack.ErrNothingBuilt)
		assert.Empty(t, f.transfers())
	})

	t.Run("missing tool", func(t *testing.T) {
		f := newFixture(t, "1.2.3")
		f.app.CheckTools = func(names ...string) error {
			return utils.ErrToolMissing
		}

		err := (&UploadCmd{DeviceFlags: keyFlags()}).Run(context.Background(), f.app)
		require.ErrorIs(t, err, utils.ErrToolMissing)
		assert.Empty(t, f.runner.Calls())
	})

	t.Run("transfer failure", func(t *testing.T) {
		f := newFixture(t, "1.2.3")
		require.NoError(t, (&BuildCmd{}).Run(context.Background(), f.app))
		boom := errors.New("connection refused")
		f.runner.Errors = map[string]error{"rsync": boom}

		err := (&UploadCmd{DeviceFlags: keyFlags()}).Run(context.Background(), f.app)
		require.ErrorIs(t, err, boom)
	})
}

func TestUploadAppCmd(t *testing.T) {
	f := newFixture(t, "1.2.3")

	err := (&UploadAppCmd{DeviceFlags: keyFlags()}).Run(context.Background(), f.app)
	require.Error(t, err, "no archive yet")
	assert.Empty(t, f.transfers())

	require.NoError(t, (&ZipCmd{}).Run(context.Background(), f.app))
	require.NoError(t, (&UploadAppCmd{DeviceFlags: keyFlags()}).Run(context.Background(), f.app))

	calls := f.transfers()
	require.Len(t, calls, 1)
	c := calls[0]
	assert.Equal(t, filepath.Join(f.root(), ".dist", "RomM_1.2.3.muxapp"), c.Args[len(c.Args)-2])
	assert.Equal(t, "root@192.168.1.50:/mnt/mmc/ARCHIVE/", c.Args[len(c.Args)-1])
}

func TestConnectCmd(t *testing.T) {
	t.Run("settings only", func(t *testing.T) {
		f := newFixture(t, "1.2.3")
		require.NoError(t, (&ConnectCmd{DeviceFlags: keyFlags()}).Run(context.Background(), f.app))
		assert.Empty(t, f.runner.Calls())
	})

	t.Run("probe", func(t *testing.T) {
		f := newFixture(t, "1.2.3")
		require.NoError(t, (&ConnectCmd{DeviceFlags: keyFlags(), Probe: true}).Run(context.Background(), f.app))

		calls := f.runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "ssh", calls[0].Name)
		assert.Equal(t, []string{"root@192.168.1.50", "true"}, calls[0].Args[len(calls[0].Args)-2:])
	})
}

func TestReleaseCmd(t *testing.T) {
	f := newFixture(t, "1.2.3")
	writeFile(t, filepath.Join(f.root(), ".build", "stale", "old.txt"), "stale")

	require.NoError(t, (&ReleaseCmd{Plain: true}).Run(context.Background(), f.app))

	assert.FileExists(t, filepath.Join(f.root(), ".dist", "RomM_1.2.3.muxapp"))
	assert.NoDirExists(t, filepath.Join(f.root(), ".build", "stale"), "release starts clean")
}

func TestDeployCmd(t *testing.T) {
	f := newFixture(t, "<version>")

	require.NoError(t, (&DeployCmd{DeviceFlags: keyFlags(), Plain: true}).Run(context.Background(), f.app))

	calls := f.transfers()
	require.Len(t, calls, 1)
	assert.Equal(t, "rsync", calls[0].Name)

	data, err := os.ReadFile(filepath.Join(f.root(), ".build", "RomM", "__version__.py"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "feature_sd-switch")
}

func TestExecute_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, "1.2.3")
	boom := errors.New("boom")

	var ran []string
	steps := []step{
		{name: "one", run: func(context.Context, env) (string, error) { ran = append(ran, "one"); return "", nil }},
		{name: "two", run: func(context.Context, env) (string, error) { ran = append(ran, "two"); return "", boom }},
		{name: "three", run: func(context.Context, env) (string, error) { ran = append(ran, "three"); return "", nil }},
	}

	var msgs int
	err := execute(context.Background(), newEnv(f.app), steps, func(tea.Msg) { msgs++ })

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "two")
	assert.Equal(t, []string{"one", "two"}, ran)
	assert.Equal(t, 4, msgs, "start and completion for two steps")
}

func TestExecute_Cancelled(t *testing.T) {
	f := newFixture(t, "1.2.3")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	steps := []step{{name: "build", run: func(context.Context, env) (string, error) {
		called = true
		return "", nil
	}}}

	err := execute(ctx, newEnv(f.app), steps, func(tea.Msg) {})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestInitCmd(t *testing.T) {
	f := newFixture(t, "1.2.3")
	f.app.ConfigPath = filepath.Join(f.root(), config.DefaultFileName)

	require.NoError(t, (&InitCmd{}).Run(context.Background(), f.app))

	loaded, err := config.Load(f.app.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "RomM", loaded.AppName)
	assert.False(t, loaded.UseRsync)

	err = (&InitCmd{}).Run(context.Background(), f.app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, (&InitCmd{Force: true}).Run(context.Background(), f.app))
}

func TestCheckUpdateCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/rommapp/muos-app/releases/latest" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"tag_name":"v1.3.0","assets":[{"browser_download_url":"https://example.com/RomM_1.3.0.muxapp"}]}`))
	}))
	defer server.Close()

	f := newFixture(t, "1.2.3")
	require.NoError(t, (&CheckUpdateCmd{APIURL: server.URL}).Run(context.Background(), f.app))

	err := (&CheckUpdateCmd{APIURL: server.URL, Repo: "someone/else"}).Run(context.Background(), f.app)
	require.Error(t, err)
}

func TestDeviceFlags(t *testing.T) {
	p := config.DefaultProject()
	p.Remote.Port = 2222

	flags := DeviceFlags{Host: "muos.local", KeyPath: "/k", Password: "pw"}
	target := flags.Target(p)
	assert.Equal(t, remote.AuthKey, target.Auth(), "key wins over password")
	assert.Equal(t, 2222, target.Port)

	paths := flags.Paths(p)
	assert.Equal(t, 1, paths.SDCard)

	flags.SDCard = 2
	assert.Equal(t, 2, flags.Paths(p).SDCard)
}

func TestDeviceRows_HidesPassword(t *testing.T) {
	target := remote.Target{Host: "muos.local", User: "root", Port: 22, Password: "hunter2"}
	rows := deviceRows(target, remote.Paths{SDCard: 1, AppDir: "MUOS/application", ArchiveDir: "ARCHIVE"})

	assert.True(t, slices.ContainsFunc(rows, func(r ui.KV) bool { return r.Key == "Auth" }))
	for _, r := range rows {
		assert.NotContains(t, r.Value, "hunter2")
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}
