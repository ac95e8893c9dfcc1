package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const defaultExecTimeout = 60 * time.Second

// LocalPython executes code in a local Python subprocess. It is the simplest
// Executor; hosted deployments substitute a remote kernel behind the same
// interface.
type LocalPython struct {
	python     string
	workingDir string
	timeout    time.Duration
	env        map[string]string
}

// LocalPythonOption configures a LocalPython executor.
type LocalPythonOption func(*LocalPython)

// WithInterpreter overrides the python binary (default "python3").
func WithInterpreter(path string) LocalPythonOption {
	return func(l *LocalPython) { l.python = path }
}

// WithWorkingDir sets the subprocess working directory.
func WithWorkingDir(dir string) LocalPythonOption {
	return func(l *LocalPython) { l.workingDir = dir }
}

// WithTimeout bounds a single execution.
func WithTimeout(d time.Duration) LocalPythonOption {
	return func(l *LocalPython) { l.timeout = d }
}

// WithEnv adds environment variables for the subprocess.
func WithEnv(env map[string]string) LocalPythonOption {
	return func(l *LocalPython) { l.env = env }
}

// NewLocalPython creates a local Python executor.
func NewLocalPython(opts ...LocalPythonOption) *LocalPython {
	l := &LocalPython{
		python:  "python3",
		timeout: defaultExecTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.workingDir == "" {
		l.workingDir, _ = os.Getwd()
	}
	return l
}

// ExecuteCode runs source through the interpreter and returns combined
// stdout and stderr. Non-zero exits and timeouts fold into the result text;
// only a failure to start the subprocess surfaces as an error.
func (l *LocalPython) ExecuteCode(ctx context.Context, source string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, l.python, "-c", source)
	cmd.Dir = l.workingDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	env := os.Environ()
	for k, v := range l.env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := combineOutput(stdout.String(), stderr.String())

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
			return output + fmt.Sprintf("\n[execution timed out after %s]", l.timeout), nil
		}
		if ctx.Err() == context.Canceled {
			return output, ctx.Err()
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output + fmt.Sprintf("\n[process exited with status %d]", exitErr.ExitCode()), nil
		}
		return "", fmt.Errorf("execute code: %w", err)
	}

	return output, nil
}

func combineOutput(stdout, stderr string) string {
	stdout = strings.TrimRight(stdout, "\n")
	stderr = strings.TrimRight(stderr, "\n")
	switch {
	case stderr == "":
		return stdout
	case stdout == "":
		return stderr
	default:
		return stdout + "\n" + stderr
	}
}
