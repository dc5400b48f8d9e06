package remote

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/utils"
)

// SyncOptions tweaks the rsync invocation
type SyncOptions struct {
	Delete bool // remove files on the device that are gone locally
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
}

// RequiredTools lists the external tools a transfer to t needs
func RequiredTools(t Target) []string {
	tools := []string{"rsync", "ssh"}
	if t.Auth() == AuthPassword {
		tools = append(tools, "sshpass")
	}
	return tools
}

// wrap runs name/args through sshpass for password auth. The password goes
// through the SSHPASS environment variable so it never shows up in ps.
func wrap(t Target, name string, args []string) utils.Command {
	c := utils.Command{Name: name, Args: args}
	if t.Auth() == AuthPassword {
		c = utils.Command{
			Name:    "sshpass",
			Args:    append([]string{"-e", name}, args...),
			Env:     []string{"SSHPASS=" + t.Password},
			Secrets: []string{t.Password},
		}
	}
	return c
}

// SyncCommand builds the rsync invocation that copies src to dst on the device
func SyncCommand(t Target, src, dst string, opts SyncOptions) (utils.Command, error) {
	if err := t.Validate(); err != nil {
		return utils.Command{}, err
	}

	shell, err := remoteShell(t)
	if err != nil {
		return utils.Command{}, err
	}
	args := []string{"-avz", "--progress"}
	if opts.Delete {
		args = append(args, "--delete")
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	args = append(args, "-e", shell, src, t.Destination(dst))

	c := wrap(t, "rsync", args)
	c.Stdout = opts.Stdout
	c.Stderr = opts.Stderr
	return c, nil
}

// remoteShell renders the ssh command for rsync's -e option. rsync splits
// it on spaces and honours single and double quotes but not backslashes.
func remoteShell(t Target) (string, error) {
	parts := append([]string{"ssh"}, t.sshOptions()...)
	for i, p := range parts {
		q, err := rshQuote(p)
		if err != nil {
			return "", err
		}
		parts[i] = q
	}
	return strings.Join(parts, " "), nil
}

func rshQuote(s string) (string, error) {
	if s != "" && !strings.ContainsAny(s, " \t'\"") {
		return s, nil
	}
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'", nil
	case !strings.Contains(s, `"`):
		return `"` + s + `"`, nil
	default:
		return "", fmt.Errorf("cannot pass %q to rsync's remote shell: it contains both quote characters", s)
	}
}

// Sync copies src to dst on the device. Nothing runs when the target fails
// validation.
func Sync(ctx context.Context, runner utils.Runner, logger *zap.Logger, t Target, src, dst string, opts SyncOptions) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := SyncCommand(t, src, dst, opts)
	if err != nil {
		return err
	}

	logger.Info("syncing to device",
		zap.String("src", src),
		zap.String("dst", t.Destination(dst)),
		zap.Stringer("auth", t.Auth()))

	if err := runner.Run(ctx, c); err != nil {
		return fmt.Errorf("upload to %s failed: %w", t.Host, err)
	}
	return nil
}

// ProbeCommand builds an ssh invocation that only checks the login works
func ProbeCommand(t Target) (utils.Command, error) {
	if err := t.Validate(); err != nil {
		return utils.Command{}, err
	}

	args := append(t.sshOptions(), "-o", "ConnectTimeout=10")
	if t.Auth() == AuthKey {
		args = append(args, "-o", "BatchMode=yes")
	}
	args = append(args, t.Login(), "true")
	return wrap(t, "ssh", args), nil
}

// Probe logs in to the device and runs a no-op command
func Probe(ctx context.Context, runner utils.Runner, t Target) error {
	c, err := ProbeCommand(t)
	if err != nil {
		return err
	}
	if _, err := runner.Output(ctx, c); err != nil {
		return fmt.Errorf("cannot reach %s: %w", t.Login(), err)
	}
	return nil
}
