package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// NewFileProgress returns a bar counting archived files
func NewFileProgress(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(50*time.Millisecond),
	)
}

// Spinner shows activity while an external tool runs without progress output
type Spinner struct {
	s *spinner.Spinner
}

// StartSpinner starts a spinner with the given suffix on w
func StartSpinner(w io.Writer, suffix string) *Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Color("cyan") //nolint:errcheck
	s.Suffix = " " + suffix
	s.Start()
	return &Spinner{s: s}
}

// Stop stops the spinner. It is safe to call on a nil Spinner.
func (sp *Spinner) Stop() {
	if sp != nil && sp.s != nil {
		sp.s.Stop()
	}
}
