package editsession

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
)

// ErrNoEditor is returned by ExecSpawner for an empty editor command.
var ErrNoEditor = errors.New("no editor command")

// ExecSpawner starts the editor as a child process attached to the given
// streams. The editor command may carry arguments ("code --wait"); the file
// path is appended last.
type ExecSpawner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Spawn starts editor on path. The process is killed when ctx is done.
func (s ExecSpawner) Spawn(ctx context.Context, editor, path string) (Process, error) {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return nil, ErrNoEditor
	}

	args := append(fields[1:], path)

	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	err := cmd.Start()
	if err != nil {
		return nil, err
	}

	p := &ExecProcess{done: make(chan struct{})}

	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// ExecProcess is an editor started by ExecSpawner.
type ExecProcess struct {
	done chan struct{}
	err  error
}

// Exited reports whether the editor has terminated.
func (p *ExecProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the editor's exit error. It is nil while the editor runs.
func (p *ExecProcess) Err() error {
	if !p.Exited() {
		return nil
	}

	return p.err
}
