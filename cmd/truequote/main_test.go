package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/merlin-energy/truequote/internal/cli"
)

func TestRun(t *testing.T) {
	t.Setenv("TRUEQUOTE_HOME", t.TempDir())

	assert.Equal(t, 0, run(context.Background(), []string{"--version"}))
	assert.Equal(t, 1, run(context.Background(), []string{"quote"}), "missing --industry")
	assert.Equal(t, 1, run(context.Background(), []string{"no-such-command"}))
	assert.Equal(t, 1, run(context.Background(), []string{"validate", "--status", "bogus"}))
	assert.Equal(t, 2, run(context.Background(), []string{"validate", "--fixtures", filepath.Join(t.TempDir(), "missing.yaml")}),
		"harness error is a crash")
}

func TestExtractExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: 0},
		{name: "generic error", err: errors.New("boom"), want: 1},
		{name: "fail code", err: &cli.ExitError{Code: 1, Reason: "hard failure"}, want: 1},
		{name: "crash code", err: &cli.ExitError{Code: 2}, want: 2},
		{
			name: "wrapped exit error",
			err:  errors.Join(errors.New("outer"), &cli.ExitError{Code: 2}),
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractExitCode(tt.err))
		})
	}
}
