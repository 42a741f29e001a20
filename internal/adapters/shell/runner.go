// Package shell runs external processes for the toolchain, fetch and version adapters.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env overrides entries of the inherited environment.
	Env map[string]string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands using os/exec.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes c and blocks until it exits. Output is streamed to stdout and
// stderr; a nil writer sends that stream to the debug log line by line.
func (r *Runner) Run(ctx context.Context, c Command, stdout, stderr io.Writer) error {
	if c.Name == "" {
		return zerr.New("command is empty")
	}

	var flushers []*lineWriter
	if stdout == nil {
		lw := &lineWriter{emit: r.logger.Debug}
		flushers = append(flushers, lw)
		stdout = lw
	}
	if stderr == nil {
		lw := &lineWriter{emit: r.logger.Debug}
		flushers = append(flushers, lw)
		stderr = lw
	}

	cmd := r.command(ctx, c)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.logger.Debug("exec: " + c.String())
	err := cmd.Run()
	for _, f := range flushers {
		f.Flush()
	}

	return commandError(c, err, "")
}

// Output executes c and returns its trimmed standard output. Standard error is
// attached to the returned error on failure.
func (r *Runner) Output(ctx context.Context, c Command) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := r.command(ctx, c)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("exec: " + c.String())
	if err := cmd.Run(); err != nil {
		return "", commandError(c, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (r *Runner) command(ctx context.Context, c Command) *exec.Cmd {
	env := resolveEnvironment(os.Environ(), c.Env)

	executable := c.Name
	if !filepath.IsAbs(c.Name) && !strings.ContainsRune(c.Name, filepath.Separator) {
		if lp, err := lookPath(c.Name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, c.Args...) //nolint:gosec // descriptor provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = c.Name
	}
	cmd.Dir = c.Dir
	cmd.Env = env
	return cmd
}

func commandError(c Command, err error, stderr string) error {
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	wrapped := zerr.With(zerr.Wrap(err, "command failed"), "command", c.String())
	wrapped = zerr.With(wrapped, "exit_code", exitCode)
	if stderr != "" {
		wrapped = zerr.With(wrapped, "stderr", stderr)
	}
	return wrapped
}

// lineWriter buffers partial writes and emits complete lines.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(strings.TrimSuffix(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}

// resolveEnvironment applies overrides on top of the system environment.
// The result is sorted for reproducible invocations.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	maps.Copy(envMap, overrides)

	keys := slices.Sorted(maps.Keys(envMap))
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
