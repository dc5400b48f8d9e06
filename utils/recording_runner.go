package utils

import (
	"context"
	"sync"
)

// RecordingRunner records commands instead of executing them, so tests can
// check what would have run.
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []Command

	// Outputs maps a command name to the stdout returned by Output
	Outputs map[string][]byte
	// Errors maps a command name to the error returned by Run and Output
	Errors map[string]error
}

func (r *RecordingRunner) record(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, c)
	if r.Errors != nil {
		return r.Errors[c.Name]
	}
	return nil
}

// Run records the command
func (r *RecordingRunner) Run(_ context.Context, c Command) error {
	return r.record(c)
}

// Output records the command and returns the configured output for its name
func (r *RecordingRunner) Output(_ context.Context, c Command) ([]byte, error) {
	if err := r.record(c); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Outputs == nil {
		return nil, nil
	}
	return r.Outputs[c.Name], nil
}

// Calls returns a snapshot of the recorded commands
func (r *RecordingRunner) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.Commands))
	copy(out, r.Commands)
	return out
}
