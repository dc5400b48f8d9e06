package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/lepinkainen/muxpack/pack"
	"github.com/lepinkainen/muxpack/types"
	"github.com/lepinkainen/muxpack/ui"
)

// step is one stage of a pipeline. run returns a short detail line.
type step struct {
	name string
	run  func(ctx context.Context, e env) (string, error)
}

// pipeline runs steps in order and stops at the first failure
type pipeline struct {
	title string
	steps []step
	tui   bool
	out   io.Writer
}

// interactive reports whether the TUI can be used on stdout
func interactive(plain bool) bool {
	if plain {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p pipeline) names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

func (p pipeline) run(ctx context.Context, app *types.AppContext) error {
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.tui {
		return p.runWithTUI(ctx, app)
	}

	fmt.Fprintln(p.out, ui.Header(app.ToolVersion(), p.title))
	e := newEnv(app)
	e.out = p.out
	err := execute(ctx, e, p.steps, p.printer())
	if err == nil {
		fmt.Fprintf(p.out, "\n%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ %s complete.", p.title)))
	}
	return err
}

// printer reports step messages as plain lines
func (p pipeline) printer() func(tea.Msg) {
	return func(msg tea.Msg) {
		switch msg := msg.(type) {
		case ui.StepStartedMsg:
			fmt.Fprintln(p.out, ui.ProcessingStyle.Render(fmt.Sprintf("▶ %s", p.steps[msg.Index].name)))
		case ui.StepCompletedMsg:
			name := p.steps[msg.Index].name
			if msg.Error != nil {
				fmt.Fprintln(p.out, ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", name, msg.Error)))
				return
			}
			fmt.Fprintln(p.out, ui.SuccessStyle.Render(fmt.Sprintf("✓ %s", name))+" "+ui.DimStyle.Render(msg.Detail))
		}
	}
}

func (p pipeline) runWithTUI(ctx context.Context, app *types.AppContext) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewPipelineModel(p.title, app.ToolVersion(), p.names(), cancel)
	prog := tea.NewProgram(model, tea.WithOutput(p.out))

	// Log lines and rsync chatter would tear the screen
	e := newEnv(app)
	e.logger = zap.NewNop()
	e.out = io.Discard

	done := make(chan error, 1)
	go func() {
		err := execute(ctx, e, p.steps, prog.Send)
		prog.Send(ui.PipelineDoneMsg{Error: err})
		done <- err
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("interface error: %w", err)
	}

	// The user may have quit early; onQuit cancelled ctx so the steps unwind
	return <-done
}

// execute runs the steps, reporting start, progress and completion through notify
func execute(ctx context.Context, e env, steps []step, notify func(tea.Msg)) error {
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		notify(ui.StepStartedMsg{Index: i})

		index := i
		se := e
		se.progress = func(done, total int) {
			if total > 0 {
				notify(ui.StepProgressMsg{Index: index, Progress: float64(done) / float64(total)})
			}
		}

		detail, err := s.run(ctx, se)
		notify(ui.StepCompletedMsg{Index: i, Detail: detail, Error: err})
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// Step constructors shared by release, deploy and watch

func cleanStep() step {
	return step{name: "clean", run: func(_ context.Context, e env) (string, error) {
		return e.clean()
	}}
}

func buildStep(v string) step {
	return step{name: "build", run: func(ctx context.Context, e env) (string, error) {
		res, err := e.build(ctx, v)
		if err != nil {
			return "", err
		}
		return buildDetail(res), nil
	}}
}

func buildDetail(res *pack.BuildResult) string {
	if res.Stats == nil {
		return fmt.Sprintf("copied via %s", res.Method)
	}
	return fmt.Sprintf("%d files via %s", res.Stats.Files, res.Method)
}

func zipStep(v string) step {
	return step{name: "zip", run: func(ctx context.Context, e env) (string, error) {
		res, err := e.archive(ctx, v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s)", res.Path, formatSize(res.Size)), nil
	}}
}

func uploadStep(flags DeviceFlags, opts UploadFlags) step {
	return step{name: "upload", run: func(ctx context.Context, e env) (string, error) {
		p := e.project()
		return e.uploadTree(ctx, flags.Target(p), flags.Paths(p), opts.syncOptions())
	}}
}
