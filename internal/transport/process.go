package transport

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// ExitFunc receives the outcome of a finished process: its exit code and
// the accumulated stdout/stderr. It is invoked exactly once, from the
// goroutine that supervised the process.
type ExitFunc func(exitCode int, stdout, stderr []byte)

// Handle owns one running transport process.
type Handle struct {
	cmd *exec.Cmd
}

// Spawn launches argv[0] with the remaining argv as arguments, writes
// stdin to its input stream and closes it, and accumulates stdout/stderr
// until the process exits, then calls onExit once.
//
// If the process cannot be started at all (missing executable, permission
// denied), Spawn returns an error wrapping ErrSpawnFailed and onExit is
// never called.
func Spawn(argv []string, stdin []byte, onExit ExitFunc) (*Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrSpawnFailed)
	}

	cmd := exec.Command(argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		in.Close()
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	go func() {
		if len(stdin) > 0 {
			// The process may exit without reading; a write error here is
			// reflected in the exit status, not reported separately.
			_, _ = in.Write(stdin)
		}
		in.Close()

		err := cmd.Wait()
		code := 0
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				code = -1
			}
		}
		onExit(code, stdout.Bytes(), stderr.Bytes())
	}()

	return &Handle{cmd: cmd}, nil
}

// Kill forcibly terminates the process. The supervising goroutine still
// observes the (failed) exit and fires onExit; callers that no longer
// want the outcome must discard it themselves.
func (h *Handle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}
