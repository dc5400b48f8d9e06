package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Step states
const (
	StepPending = "pending"
	StepRunning = "running"
	StepDone    = "done"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// StepState tracks one pipeline step
type StepState struct {
	Name     string
	Status   string
	Detail   string
	Progress float64
	Error    error
}

// PipelineModel shows the clean/build/zip/upload steps as they run
type PipelineModel struct {
	// Application state
	steps []StepState
	err   error

	// UI components
	spinner  spinner.Model
	progress progress.Model

	// Layout
	width int

	// Control state
	done     bool
	quitting bool
	onQuit   func()

	// Shown in the header
	Version string
	Title   string
}

// NewPipelineModel creates a model for the named steps. onQuit runs when the
// user aborts with q or ctrl+c, typically cancelling the pipeline context.
func NewPipelineModel(title, version string, names []string, onQuit func()) PipelineModel {
	steps := make([]StepState, len(names))
	for i, n := range names {
		steps[i] = StepState{Name: n, Status: StepPending}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ProcessingStyle

	return PipelineModel{
		steps:    steps,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		onQuit:   onQuit,
		Version:  version,
		Title:    title,
	}
}

// Steps returns a copy of the step states
func (m PipelineModel) Steps() []StepState {
	out := make([]StepState, len(m.steps))
	copy(out, m.steps)
	return out
}

// Err returns the error that ended the pipeline, if any
func (m PipelineModel) Err() error {
	return m.err
}

// Init implements tea.Model
func (m PipelineModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m PipelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.done {
				m.quitting = true
				if m.onQuit != nil {
					m.onQuit()
				}
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StepStartedMsg:
		if m.valid(msg.Index) {
			m.steps[msg.Index].Status = StepRunning
			m.steps[msg.Index].Progress = 0
		}

	case StepProgressMsg:
		if m.valid(msg.Index) {
			m.steps[msg.Index].Progress = msg.Progress
		}

	case StepCompletedMsg:
		if m.valid(msg.Index) {
			step := &m.steps[msg.Index]
			step.Detail = msg.Detail
			step.Progress = 1
			if msg.Error != nil {
				step.Status = StepFailed
				step.Error = msg.Error
			} else {
				step.Status = StepDone
			}
		}

	case PipelineDoneMsg:
		m.done = true
		m.err = msg.Error
		for i := range m.steps {
			if m.steps[i].Status == StepPending {
				m.steps[i].Status = StepSkipped
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m PipelineModel) valid(i int) bool {
	return i >= 0 && i < len(m.steps)
}

// View implements tea.Model
func (m PipelineModel) View() string {
	if m.quitting {
		return "Aborting...\n"
	}

	header := Header(m.Version, m.Title)

	lines := make([]string, 0, len(m.steps))
	for i, step := range m.steps {
		var icon string
		switch step.Status {
		case StepRunning:
			icon = m.spinner.View()
		case StepDone:
			icon = SuccessStyle.Render("✓")
		case StepFailed:
			icon = ErrorStyle.Render("✗")
		case StepSkipped:
			icon = DimStyle.Render("-")
		default:
			icon = DimStyle.Render("·")
		}

		line := fmt.Sprintf("%s %d. %-10s", icon, i+1, step.Name)
		switch {
		case step.Status == StepRunning && step.Progress > 0:
			line += " " + m.progress.ViewAs(step.Progress)
		case step.Error != nil:
			line += " " + ErrorStyle.Render(step.Error.Error())
		case step.Detail != "":
			line += " " + DimStyle.Render(step.Detail)
		}
		lines = append(lines, line)
	}

	controls := DimStyle.Render("Controls: [q] Abort")
	if m.done {
		controls = ""
	}

	sections := []string{header, strings.Join(lines, "\n")}
	if controls != "" {
		sections = append(sections, controls)
	}
	return strings.Join(sections, "\n\n") + "\n"
}
