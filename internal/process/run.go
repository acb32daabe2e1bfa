package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/giantswarm/diskcache/internal/sentinel"
)

// ErrEmptyArgs is returned when Run is called without a program.
const ErrEmptyArgs = sentinel.Error("command arguments must not be empty")

// DefaultStopGrace is how long a canceled child gets to exit after SIGTERM
// before it is killed.
const DefaultStopGrace = 5 * time.Second

// sudoPrefix elevates a command without prompting; a missing sudo rule fails
// fast instead of hanging on a password prompt.
var sudoPrefix = []string{"sudo", "-n", "--"}

// Cmd describes one external command invocation.
type Cmd struct {
	Args []string // program and arguments; Args[0] is resolved via PATH
	Dir  string   // working directory; empty means the caller's
	Env  []string // extra KEY=VALUE pairs appended to the current environment
	Sudo bool     // run through "sudo -n --"

	// StopGrace is the time between SIGTERM and SIGKILL once ctx is
	// canceled. Zero uses DefaultStopGrace.
	StopGrace time.Duration

	// Logger receives a debug line per invocation. Nil disables logging.
	Logger *slog.Logger
}

// argv returns the full argument vector including any sudo prefix.
func (c Cmd) argv() []string {
	if !c.Sudo {
		return c.Args
	}
	out := make([]string, 0, len(sudoPrefix)+len(c.Args))
	out = append(out, sudoPrefix...)
	return append(out, c.Args...)
}

// Result holds the captured output of a successful command.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// RunError reports a command that could not be started or exited non-zero.
// ExitCode is -1 when the process never ran or was killed by a signal.
type RunError struct {
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q", strings.Join(e.Args, " "))
	if e.Dir != "" {
		fmt.Fprintf(&b, " in %s", e.Dir)
	}
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with code %d", e.ExitCode)
	} else {
		fmt.Fprintf(&b, " failed: %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, ": %s", s)
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Err }

// Run starts c, waits for it to finish and returns its captured output.
// A non-zero exit or a start failure returns *RunError. If ctx ends first the
// child is stopped and the returned error wraps context.Cause(ctx).
func Run(ctx context.Context, c Cmd) (*Result, error) {
	argv := c.argv()
	if len(argv) == 0 {
		return nil, ErrEmptyArgs
	}
	if err := context.Cause(ctx); err != nil {
		return nil, fmt.Errorf("run %s: %w", argv[0], err)
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // G204: argv is assembled by the cache
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureSysProcAttr(cmd)

	if c.Logger != nil {
		c.Logger.Debug("running command", "args", argv, "dir", c.Dir)
	}

	ch, err := startChild(cmd, argv[0])
	if err != nil {
		return nil, &RunError{Args: argv, Dir: c.Dir, ExitCode: -1, Err: err}
	}

	select {
	case <-ch.exited:
		if ch.err != nil {
			return nil, newRunError(argv, c.Dir, stderr.String(), ch.err)
		}
		return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	case <-ctx.Done():
		grace := c.StopGrace
		if grace <= 0 {
			grace = DefaultStopGrace
		}
		stopErr := ch.stop(grace)
		return nil, errors.Join(fmt.Errorf("run %s: %w", argv[0], context.Cause(ctx)), stopErr)
	}
}

func newRunError(argv []string, dir, stderr string, err error) *RunError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &RunError{Args: argv, Dir: dir, ExitCode: code, Stderr: stderr, Err: err}
}
