// Package media assembles the slideshow, narration track, and final
// video by shelling out to ffmpeg and ffprobe.
package media

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr string, err error)
}

// ExecCommandRunner implements CommandRunner using exec.CommandContext.
type ExecCommandRunner struct {
	Timeout time.Duration
}

// Run executes a command with the given arguments.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args []string) (string, string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), err
}
