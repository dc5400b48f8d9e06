package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString_MasksSecrets(t *testing.T) {
	c := Command{
		Name:    "sshpass",
		Args:    []string{"-p", "hunter2", "rsync", "-avz"},
		Secrets: []string{"hunter2", ""},
	}

	assert.Equal(t, "sshpass -p **** rsync -avz", c.String())
}

func TestRecordingRunner(t *testing.T) {
	boom := errors.New("boom")
	r := &RecordingRunner{
		Outputs: map[string][]byte{"git": []byte("main")},
		Errors:  map[string]error{"rsync": boom},
	}

	out, err := r.Output(context.Background(), Command{Name: "git", Args: []string{"rev-parse"}})
	require.NoError(t, err)
	assert.Equal(t, "main", string(out))

	err = r.Run(context.Background(), Command{Name: "rsync"})
	assert.ErrorIs(t, err, boom)

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "git", calls[0].Name)
	assert.Equal(t, "rsync", calls[1].Name)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner(nil)

	err := r.Run(context.Background(), Command{Name: "muxpack-definitely-not-a-real-tool"})
	assert.Error(t, err)

	_, err = r.Output(context.Background(), Command{Name: "muxpack-definitely-not-a-real-tool"})
	assert.Error(t, err)
}
